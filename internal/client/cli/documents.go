package cli

import (
	"errors"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
)

var errFileRequired = errors.New("a file is required (--file)")

// saveLocalFile is a test seam for filex.SaveInDir.
var saveLocalFile = filex.SaveInDir

func documentsCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "documents",
		Aliases:     []string{"docs"},
		Short:       "Your uploaded and generated documents",
		Annotations: route(guard.RouteProfile),
	}
	cmd.AddCommand(documentsListCmd(r), documentsDownloadCmd(r))
	return cmd
}

func documentsListCmd(r *runner) *cobra.Command {
	var f api.DocumentFilter

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your documents, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := r.app.api.MyDocuments(cmd.Context(), f)
			if err != nil {
				return err
			}
			documentTable(r.app.out, ds)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.DocumentType, "type", "", "only documents of this type")
	fl.StringVar(&f.CaseID, "case", "", "only documents linked to this case")
	fl.StringVar(&f.SessionID, "session", "", "only documents from this questionnaire session")
	fl.IntVar(&f.Limit, "limit", 0, "maximum rows to return")
	return cmd
}

func documentsDownloadCmd(r *runner) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <document-id>",
		Short: "Save one of your documents to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := r.app.api.DownloadDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path, err := saveLocalFile(dir, d.FileName, args[0], d.Data)
			if err != nil {
				return err
			}
			r.app.printf("Saved %d bytes to %s.\n", len(d.Data), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "out", "o", ".", "directory to save into")
	return cmd
}

func casesDocsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "docs <case-id>",
		Short: "List documents attached to a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := r.app.api.CaseDocuments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			documentTable(r.app.out, ds)
			return nil
		},
	}
}

func casesAttachCmd(r *runner) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "attach <case-id>",
		Short: "Attach a document to a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return errFileRequired
			}
			f, err := readLocalFile(path, common.MaxUploadSize)
			if err != nil {
				return err
			}
			d, err := r.app.api.AttachCaseDocument(cmd.Context(), args[0], api.File{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
			if err != nil {
				return err
			}
			r.app.printf("Attached %s as %s.\n", d.FileName, d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "document to attach")
	return cmd
}

func casesDetachCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <case-id> <document-id>",
		Short: "Remove a document you attached to a case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.app.api.DetachCaseDocument(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			r.app.printf("Removed document %s.\n", args[1])
			return nil
		},
	}
}

func documentTable(w io.Writer, ds []api.Document) {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{
			d.ID,
			d.FileName,
			d.DocumentType,
			strconv.FormatInt(d.Size, 10),
			fmtTime(&d.UploadedAt),
		})
	}
	renderTable(w, []string{"ID", "File", "Type", "Bytes", "Uploaded"}, rows)
}
