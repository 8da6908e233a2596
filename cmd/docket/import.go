package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/document"
	"github.com/JonMunkholm/docket/internal/sealer"
)

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import case-list exports",
		Long: `Import one or more HTML or RTF case-list exports into the registry.

Files are processed in order. Use "-" to read a document from standard input
(--format is then required unless the content can be recognized).`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runImport,
	}

	cmd.Flags().String("import-date", "", "date new cases are received on (format: 2006-01-02, default: today)")
	cmd.Flags().String("format", "", "document format (html, rtf); detected when empty")
	cmd.Flags().Bool("dry-run", false, "show the report without changing the registry")
	_ = a.v.BindPFlags(cmd.Flags())

	return cmd
}

func (a *app) runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req := core.ImportRequest{DryRun: a.v.GetBool("dry-run")}

	rawKey := a.v.GetString("key")
	if rawKey == "" {
		return core.ErrMissingKey
	}
	key, err := sealer.ParseKey(rawKey)
	if err != nil {
		return err
	}
	req.Key = key

	if v := a.v.GetString("import-date"); v != "" {
		if req.ImportDate, err = civil.ParseDate(v); err != nil {
			return fmt.Errorf("%w: %q", core.ErrInvalidImportDate, v)
		}
	}
	if v := a.v.GetString("format"); v != "" {
		if req.Format, err = document.ParseFormat(v); err != nil {
			return err
		}
	}

	svc, st, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	out := newPrinter(cmd.OutOrStdout(), a.v.GetBool("json"))
	for _, path := range args {
		run, err := importFile(cmd, svc, req, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := out.run(run); err != nil {
			return err
		}
	}
	return nil
}

func importFile(cmd *cobra.Command, svc *core.Service, req core.ImportRequest, path string) (*core.ImportRun, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
		req.FileName = "stdin"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
		req.FileName = filepath.Base(path)
	}
	req.Body = r
	return svc.Import(cmd.Context(), req)
}
