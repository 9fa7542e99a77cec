// taxonomyctl 运维命令行：从文件入库、旧版回填、规范键解析、冲突审核
package main

import (
	"os"
)

func main() {
	if err := rootCommand(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}
