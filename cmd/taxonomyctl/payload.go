package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadPayload 读取入库文件；YAML 转成等价 JSON，解析规则与 HTTP 入口一致
func loadPayload(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件%s失败: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v interface{}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("解析YAML失败: %w", err)
		}
		out, err := json.Marshal(jsonCompatible(v))
		if err != nil {
			return nil, fmt.Errorf("转换YAML失败: %w", err)
		}
		return out, nil
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("文件%s不是合法的JSON", path)
		}
		return data, nil
	}
}

// jsonCompatible 非字符串键的 map 转成字符串键
func jsonCompatible(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, item := range t {
			t[k] = jsonCompatible(item)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = jsonCompatible(item)
		}
		return out
	case []interface{}:
		for i, item := range t {
			t[i] = jsonCompatible(item)
		}
		return t
	default:
		return v
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无效的ID %q", s)
	}
	return id, nil
}
