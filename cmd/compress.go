package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/tverify/internal/db"
	"github.com/gnoverse/tverify/internal/proof"
)

var (
	rewriteOutput  string
	rewriteInPlace bool
)

var compressCmd = &cobra.Command{
	Use:   "compress <database> [labels...]",
	Short: "Rewrite proofs in compressed form",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRewrite(args[0], args[1:], compressProof)
	},
}

var decompressCmd = &cobra.Command{
	Use:   "decompress <database> [labels...]",
	Short: "Rewrite proofs in plain form",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRewrite(args[0], args[1:], decompressProof)
	},
}

func init() {
	for _, c := range []*cobra.Command{compressCmd, decompressCmd} {
		c.Flags().StringVarP(&rewriteOutput, "output", "o", "", "Write the rewritten database to this path instead of stdout")
		c.Flags().BoolVarP(&rewriteInPlace, "write", "w", false, "Overwrite the database file")
	}
}

func compressProof(t *db.Table, th *db.Statement) (string, error) {
	p, err := proof.Decode(t, th)
	if err != nil {
		return "", err
	}
	return proof.Squish(t, th, p)
}

func decompressProof(t *db.Table, th *db.Statement) (string, error) {
	p, err := proof.Decode(t, th)
	if err != nil {
		return "", err
	}
	return proof.Format(t, p), nil
}

// rewriteDatabase re-encodes t with the proofs of the selected theorems
// rewritten. Proofs that fail to decode are kept as they are.
func rewriteDatabase(w io.Writer, t *db.Table, labels []string, rewrite func(*db.Table, *db.Statement) (string, error)) error {
	selected := make(map[string]bool, len(labels))
	for _, label := range labels {
		s, ok := t.Lookup(label)
		if !ok || s.Kind != db.KindTheorem {
			return fmt.Errorf("%q is not a theorem", label)
		}
		selected[label] = true
	}

	return db.Encode(w, t, func(th *db.Statement) string {
		if len(selected) > 0 && !selected[th.Label] {
			return th.ProofText
		}
		text, err := rewrite(t, th)
		if err != nil {
			logger.Warn("Keeping proof", zap.String("label", th.Label), zap.Error(err))
			return th.ProofText
		}
		return text
	})
}

func runRewrite(path string, labels []string, rewrite func(*db.Table, *db.Statement) (string, error)) {
	t, err := db.LoadFile(path)
	if err != nil {
		logger.Fatal("Failed to load database", zap.Error(err))
	}

	target := rewriteOutput
	if rewriteInPlace {
		target = path
	}

	var w io.Writer = os.Stdout
	if target != "" {
		f, err := os.Create(target)
		if err != nil {
			logger.Fatal("Error creating output file", zap.Error(err))
		}
		defer f.Close()
		w = f
	}

	if err := rewriteDatabase(w, t, labels, rewrite); err != nil {
		logger.Error("Error rewriting database", zap.Error(err))
		os.Exit(1)
	}
}
