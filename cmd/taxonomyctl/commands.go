package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"

	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/service"

	"github.com/spf13/cobra"
)

func rootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "taxonomyctl",
		Short:        "Trading card set taxonomy operator CLI",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// 测试中预先注入依赖
		if a.ingestion != nil {
			return nil
		}
		return a.init()
	}

	rootCmd.AddCommand(
		ingestCommand(a),
		backfillCommand(a),
		patchCommand(a),
		resolveCommand(a),
		conflictsCommand(a),
	)
	return rootCmd
}

func ingestCommand(a *app) *cobra.Command {
	var setID, file, dataset, sourceURL, jobID, provider, parserVersion string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a parsed checklist/odds payload from a JSON or YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := loadPayload(file)
			if err != nil {
				return err
			}
			req := &service.IngestRequest{
				SetID:          setID,
				IngestionJobID: jobID,
				DatasetType:    model.DatasetType(dataset),
				RawPayload:     payload,
				SourceURL:      sourceURL,
				ParserVersion:  parserVersion,
				Actor:          currentActor(),
			}
			if provider != "" {
				req.ParseSummary = map[string]interface{}{"provider": provider}
			}
			result, err := a.ingestion.Ingest(cmd.Context(), req)
			if result != nil {
				_ = printJSON(cmd.OutOrStdout(), result)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "Set ID")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Payload file (.json, .yaml, .yml)")
	cmd.Flags().StringVar(&dataset, "dataset", string(model.DatasetChecklist), "Dataset type (CHECKLIST, ODDS, PARALLEL_DB, PLAYER_WORKSHEET, MANUAL_PATCH)")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Source URL of the artifact")
	cmd.Flags().StringVar(&jobID, "job", "", "Ingestion job ID")
	cmd.Flags().StringVar(&provider, "provider", "", "Upstream provider")
	cmd.Flags().StringVar(&parserVersion, "parser-version", "", "Parser version")
	_ = cmd.MarkFlagRequired("set")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func backfillCommand(a *app) *cobra.Command {
	var setID, jobID string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Bootstrap a minimal taxonomy from legacy card variants and refresh the canonical bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.ingestion.BackfillFromLegacyVariants(cmd.Context(), &service.BackfillRequest{
				SetID:          setID,
				IngestionJobID: jobID,
				Actor:          currentActor(),
			})
			if result != nil {
				_ = printJSON(cmd.OutOrStdout(), result)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "Set ID")
	cmd.Flags().StringVar(&jobID, "job", "", "Ingestion job ID")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func patchCommand(a *app) *cobra.Command {
	var setID, file, jobID string
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply a manual patch of normalized programs, cards, parallels and scopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := loadPayload(file)
			if err != nil {
				return err
			}
			var patch service.ManualPatch
			if err := json.Unmarshal(payload, &patch); err != nil {
				return fmt.Errorf("解析补丁失败: %w", err)
			}
			if patch.Empty() {
				return errors.New("补丁不含任何实体")
			}
			patch.SetID = setID
			patch.Actor = currentActor()
			if jobID != "" {
				patch.IngestionJobID = jobID
			}
			result, err := a.ingestion.ApplyManualPatch(cmd.Context(), &patch)
			if result != nil {
				_ = printJSON(cmd.OutOrStdout(), result)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "Set ID")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Patch file (.json, .yaml, .yml)")
	cmd.Flags().StringVar(&jobID, "job", "", "Ingestion job ID")
	_ = cmd.MarkFlagRequired("set")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func resolveCommand(a *app) *cobra.Command {
	var setID, cardNumber, parallel string
	var scope bool
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a card number and parallel to canonical keys, or print the matcher scope of a set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scope {
				out, err := a.resolution.ResolveTaxonomyScopeForMatcher(cmd.Context(), setID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			ix, err := a.identity.Build(cmd.Context(), []string{setID})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ix.Resolve(setID, cardNumber, parallel))
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "Set ID")
	cmd.Flags().StringVar(&cardNumber, "card", "", "Card number")
	cmd.Flags().StringVar(&parallel, "parallel", "", "Parallel label")
	cmd.Flags().BoolVar(&scope, "scope", false, "Print the whole taxonomy scope instead")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func conflictsCommand(a *app) *cobra.Command {
	var setID, status string
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List field conflicts awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, total, err := a.review.ListConflicts(cmd.Context(), repository.ReviewFilter{
				SetID:  setID,
				Status: model.ReviewStatus(status),
			}, page, pageSize)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"total": total, "items": list})
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "Set ID (empty for all sets)")
	cmd.Flags().StringVar(&status, "status", string(model.ReviewOpen), "Status filter (OPEN, RESOLVED, empty for all)")
	cmd.Flags().IntVar(&page, "page", 1, "Page")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "Page size")

	var note string
	resolveCmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Close a conflict with an operator note; the incoming value is never applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.review.ResolveConflict(cmd.Context(), id, note, currentActor())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	resolveCmd.Flags().StringVar(&note, "note", "", "Resolution note")
	cmd.AddCommand(resolveCmd)
	return cmd
}

func currentActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return "cli:" + u.Username
	}
	if h, err := os.Hostname(); err == nil {
		return "cli@" + h
	}
	return "cli"
}
