package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/internal/searcher"
	"github.com/dshills/coderag/internal/storage"
)

const statusLongDesc string = `Show the corpus and the state of its embedding cache.

Status never embeds anything and needs no embedding credentials: it
reads the cache metadata only and reports whether the cache was built
from the current corpus.`

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show corpus and embedding cache status",
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := corpus.Load(a.cfg.CorpusPath, corpus.WithLogger(a.log))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printStatus(w, searcher.Status{
				Fragments:   c.Len(),
				Fingerprint: c.Fingerprint(),
				CachePath:   a.cfg.CachePath,
			})

			if !storage.Exists(a.cfg.CachePath) {
				fmt.Fprintf(w, "  %s\n", warnStyle.Render("no embedding cache; it is built on the first semantic query"))
				return nil
			}
			meta, err := storage.ReadMeta(cmd.Context(), a.cfg.CachePath)
			if err != nil {
				fmt.Fprintf(w, "  %s %v\n", warnStyle.Render("embedding cache unreadable:"), err)
				return nil
			}
			printMeta(w, *meta, c.Fingerprint())
			return nil
		},
	}
}

func printStatus(w io.Writer, st searcher.Status) {
	fmt.Fprintf(w, "%s\n", headerStyle.Render("Corpus"))
	fmt.Fprintf(w, "  fragments:   %d\n", st.Fragments)
	fmt.Fprintf(w, "  fingerprint: %s\n", dimStyle.Render(st.Fingerprint))
	fmt.Fprintf(w, "%s\n", headerStyle.Render("Embedding cache"))
	fmt.Fprintf(w, "  path:        %s\n", pathStyle.Render(st.CachePath))
	if st.IndexLoaded {
		fmt.Fprintf(w, "  loaded:      %s/%s, %d dimensions, from cache: %v\n",
			st.Provider, st.Model, st.Dimension, st.FromCache)
	}
}

func printMeta(w io.Writer, meta storage.Meta, fingerprint string) {
	fmt.Fprintf(w, "  model:       %s/%s\n", meta.Provider, meta.Model)
	fmt.Fprintf(w, "  vectors:     %d x %d\n", meta.Count, meta.Dimension)
	fmt.Fprintf(w, "  built:       %s\n", meta.CreatedAt.Local().Format(time.DateTime))
	if meta.Fingerprint != fingerprint {
		fmt.Fprintf(w, "  %s\n", warnStyle.Render("stale: built from a different corpus, run \"coderag index --force\""))
	} else {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("up to date"))
	}
}
