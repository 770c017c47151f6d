package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/toolscout/internal/adapters/repository"
	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/pkg/logger"
)

// seedFile is the JSON document accepted by the seed command. Entries
// default to published.
type seedFile struct {
	Tools []seedTool `json:"tools"`
	Posts []seedPost `json:"posts"`
}

type seedTool struct {
	model.Tool
	Published *bool `json:"published,omitempty"`
}

type seedPost struct {
	model.Post
	Published *bool `json:"published,omitempty"`
}

func published(p *bool) bool { return p == nil || *p }

// NewSeedCmd creates the seed command.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load tools and posts from a JSON file into the store",
		Long: `Seed upserts the tools and posts of a JSON document into the SQLite store.

  {"tools": [{"id": "t1", "slug": "jasper", "name": "Jasper", "category": "AI Writing",
              "rating": 4.7, "review_count": 5000}],
   "posts": [{"id": "p1", "slug": "intro", "category": "guides", "tags": ["ai"],
              "created_at": "2025-01-10T08:30:00Z", "published": false}]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("seed needs a database: set --db or db_path")
			}
			path, _ := cmd.Flags().GetString("file")

			doc, err := readSeedFile(path)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tools, posts, err := applySeed(cmd, store, doc)
			if err != nil {
				return err
			}
			logger.Get().Info(cmd.Context(), "seed complete",
				logger.Int("tools", tools), logger.Int("posts", posts))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tools and %d posts into %s\n", tools, posts, cfg.DBPath)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "JSON seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readSeedFile(path string) (seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	var doc seedFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return seedFile{}, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return doc, nil
}

func applySeed(cmd *cobra.Command, w repository.Writer, doc seedFile) (tools, posts int, err error) {
	ctx := cmd.Context()
	for _, t := range doc.Tools {
		if err := w.SaveTool(ctx, t.Tool, published(t.Published)); err != nil {
			return tools, posts, err
		}
		tools++
	}
	for _, p := range doc.Posts {
		if err := w.SavePost(ctx, p.Post, published(p.Published)); err != nil {
			return tools, posts, err
		}
		posts++
	}
	return tools, posts, nil
}
