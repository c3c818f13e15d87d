package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"candidate-screening/internal/helper"
	"candidate-screening/internal/ingest"
	"candidate-screening/internal/models"
	"candidate-screening/internal/rag"
)

var (
	ingestDir   string
	ingestSeed  bool
	ingestReset bool

	inspectSource  string
	inspectIDs     []string
	inspectDocType string
	inspectLimit   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load ground-truth documents into the knowledge base",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		kb, err := openKnowledgeBase(ctx, cfg)
		if err != nil {
			return err
		}

		dir := ingestDir
		if dir == "" {
			dir = cfg.RAG.SourceDir
		}
		if ingestSeed {
			written, err := ingest.SeedSampleDocs(dir, cfg.RAG.RubricLayout)
			if err != nil {
				return err
			}
			log.Info().Strs("files", written).Msg("Seeded sample documents")
		}
		if ingestReset {
			if err := kb.Reset(); err != nil {
				return err
			}
		}

		report, err := ingest.NewIngester(kb, &cfg.RAG).IngestDir(ctx, dir)
		if err != nil {
			return err
		}
		helper.FprettyPrint(cmd.OutOrStdout(), report)

		if cfg.RAG.InMemory && cfg.RAG.EncryptionKey != "" {
			// in-memory stores keep nothing unless exported
			return kb.Export("")
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show what the knowledge base contains",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		kb, err := openKnowledgeBase(ctx, cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		switch {
		case len(inspectIDs) > 0:
			chunks, err := kb.GetByIDs(ctx, inspectIDs...)
			if err != nil {
				return err
			}
			helper.FprettyPrint(out, chunks)
		case inspectSource != "":
			chunks, err := kb.ListBySource(ctx, inspectSource)
			if err != nil {
				return err
			}
			helper.FprettyPrint(out, limitChunks(chunks, inspectLimit))
		case inspectDocType != "":
			chunks, err := kb.Retrieve(ctx, models.RetrievalQuery{Text: inspectDocType, DocType: inspectDocType, K: inspectLimit})
			if err != nil {
				return err
			}
			helper.FprettyPrint(out, chunks)
		default:
			byDocType, err := countByDocType(ctx, kb, cfg.RAG.RubricLayout)
			if err != nil {
				return err
			}
			helper.FprettyPrint(out, kbSummary{Total: kb.Count(), ByDocType: byDocType})
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write an encrypted snapshot of the knowledge base",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		kb, err := openKnowledgeBase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return kb.Export(firstArg(args))
	},
}

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Load an encrypted knowledge base snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		kb, err := openKnowledgeBase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return kb.Import(firstArg(args))
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory of ground-truth documents (default rag.source_dir)")
	ingestCmd.Flags().BoolVar(&ingestSeed, "seed", false, "write the sample ground-truth documents into the directory first")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "drop every existing chunk before ingesting")

	inspectCmd.Flags().StringVar(&inspectSource, "source", "", "list chunks from this source file")
	inspectCmd.Flags().StringSliceVar(&inspectIDs, "ids", nil, "fetch chunks by id")
	inspectCmd.Flags().StringVar(&inspectDocType, "doc-type", "", "show sample chunks of this document type")
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 5, "maximum chunks to show")

	rootCmd.AddCommand(ingestCmd, inspectCmd, exportCmd, importCmd)
}

type kbSummary struct {
	Total     int            `json:"total"`
	ByDocType map[string]int `json:"by_doc_type"`
}

// countByDocType counts chunks for every document type the evaluator queries.
func countByDocType(ctx context.Context, kb rag.Knowledge, layout string) (map[string]int, error) {
	counts := map[string]int{}
	for _, docType := range rag.DocTypesFor(layout).All() {
		n, err := kb.CountByDocType(ctx, docType)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", docType, err)
		}
		counts[docType] = n
	}
	return counts, nil
}

func limitChunks(chunks []models.KnowledgeChunk, limit int) []models.KnowledgeChunk {
	if limit > 0 && len(chunks) > limit {
		return chunks[:limit]
	}
	return chunks
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
