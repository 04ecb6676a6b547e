package annotate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/flarebyte/glossa/internal/discover"
	"github.com/flarebyte/glossa/internal/document"
)

// stdinID names the document read from standard input.
const stdinID = "stdin"

// readInputs collects documents from file arguments, then --input-dir. With
// neither, it reads one document from stdin.
func readInputs(ctx context.Context, o options) ([]*document.Document, error) {
	var docs []*document.Document
	for _, path := range o.files {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, document.New(filepath.ToSlash(path), string(b)))
	}
	if o.inputDir != "" {
		rels, err := discover.Inputs(ctx, o.inputDir, discover.Options{NoGitignore: o.noGitignore, Extensions: o.exts})
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			b, err := os.ReadFile(filepath.Join(o.inputDir, filepath.FromSlash(rel)))
			if err != nil {
				return nil, err
			}
			docs = append(docs, document.New(rel, string(b)))
		}
	}
	if len(docs) > 0 || len(o.files) > 0 || o.inputDir != "" {
		return docs, nil
	}
	b, err := io.ReadAll(o.stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return []*document.Document{document.New(stdinID, string(b))}, nil
}

// writeOutputs renders documents to stdout, or one file per document under
// the output directory. Nil slots are skipped.
func writeOutputs(o options, docs []*document.Document) error {
	if o.out == "" || o.out == "-" {
		first := true
		for _, d := range docs {
			if d == nil {
				continue
			}
			b, err := document.Marshal(o.format, d)
			if err != nil {
				return err
			}
			if o.format == "yaml" && !first {
				if _, err := io.WriteString(o.stdout, "---\n"); err != nil {
					return err
				}
			}
			if _, err := o.stdout.Write(b); err != nil {
				return err
			}
			first = false
		}
		return nil
	}
	for _, d := range docs {
		if d == nil {
			continue
		}
		if err := document.Write(outputPath(o.out, d.ID, o.format), o.format, d); err != nil {
			return err
		}
	}
	return nil
}

// outputPath maps a document ID to dir/<id>.<format>, keeping the ID's
// relative directories and refusing to escape dir.
func outputPath(dir, id, format string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(id))
	clean = strings.TrimPrefix(clean, string(filepath.Separator))
	return filepath.Join(dir, clean+"."+format)
}
