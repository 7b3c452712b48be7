package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ragdesk/internal/adapters/render"
	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
	"github.com/kirillkom/ragdesk/internal/core/usecase"
)

type metadataFlags struct {
	title  string
	author string
	tags   string
}

func (f *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "document title")
	cmd.Flags().StringVar(&f.author, "author", "", "document author")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma-separated tags")
}

// NewDocsCommand groups the document catalog commands.
func NewDocsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage knowledge base documents",
	}
	cmd.AddCommand(
		newDocsListCommand(opts),
		newDocsViewCommand(opts),
		newDocsDeleteCommand(opts),
		newDocsUploadCommand(opts),
		newDocsAddTextCommand(opts),
		newDocsPingCommand(opts),
		newDocsStatsCommand(opts),
	)
	return cmd
}

func newDocsListCommand(opts *RootOptions) *cobra.Command {
	var (
		page   int
		search string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Catalog.ListDocuments(cmd.Context(), page, search)
			if err != nil {
				return fmt.Errorf("list documents: %s", domain.Detail(err))
			}
			printCatalog(cmd.OutOrStdout(), result, svc.PageSize)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title or content")
	return cmd
}

func printCatalog(w io.Writer, page *domain.CatalogPage, pageSize int) {
	if page.IsEmpty() {
		fmt.Fprintln(w, render.NewPager(page, pageSize).Info)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR")
	for _, doc := range page.Items {
		author := doc.Author
		if author == "" {
			author = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", doc.ID, doc.DisplayTitle(), author)
	}
	_ = tw.Flush()
	fmt.Fprintln(w, render.NewPager(page, pageSize).Info)
}

func newDocsViewCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view <doc-id>",
		Short: "Show a document with its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := svc.Catalog.FetchDocumentDetail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("view document: %s", domain.Detail(err))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Document: %s\n\n", doc.ID)
			fmt.Fprintf(out, "  Title:   %s\n", doc.DisplayTitle())
			fmt.Fprintf(out, "  Author:  %s\n", orDash(doc.Author))
			fmt.Fprintf(out, "  Tags:    %s\n\n", orDash(strings.Join(doc.Tags, ", ")))
			fmt.Fprintln(out, doc.Content)
			return nil
		},
	}
}

func newDocsDeleteCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <doc-id>",
		Short: "Delete a document after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			view := usecase.NewCatalogView(svc.Catalog)
			confirmer := promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirmer = ports.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
			}

			page, err := view.Delete(cmd.Context(), args[0], confirmer)
			switch {
			case domain.IsKind(err, domain.ErrDeleteCancelled):
				fmt.Fprintf(cmd.OutOrStdout(), "Kept %s.\n", args[0])
				return nil
			case domain.IsKind(err, domain.ErrRefreshAfterDelete):
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s. Could not refresh documents: %s\n", args[0], domain.Detail(err))
				return nil
			case err != nil:
				return fmt.Errorf("delete document: %s", domain.Detail(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s. %d documents remain.\n", args[0], page.TotalCount)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// promptConfirmer asks on the terminal; anything but y or yes declines.
func promptConfirmer(in io.Reader, out io.Writer) ports.Confirmer {
	return ports.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}

func newDocsUploadCommand(opts *RootOptions) *cobra.Command {
	var meta metadataFlags
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file (PDF and XLSX are converted to text first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer f.Close()

			err = svc.Catalog.UploadFile(cmd.Context(), domain.FileUpload{
				Filename: filepath.Base(args[0]),
				Body:     f,
				Title:    meta.title,
				Author:   meta.author,
				Tags:     usecase.ParseTags(meta.tags),
			})
			if err != nil {
				return fmt.Errorf("upload file: %s", domain.Detail(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s.\n", filepath.Base(args[0]))
			return nil
		},
	}
	meta.register(cmd)
	return cmd
}

func newDocsAddTextCommand(opts *RootOptions) *cobra.Command {
	var (
		meta metadataFlags
		text string
	)
	cmd := &cobra.Command{
		Use:   "add-text",
		Short: "Add a text document from --text or standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			if text == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read text: %w", err)
				}
				text = string(raw)
			}
			err = svc.Catalog.UploadText(cmd.Context(), domain.TextUpload{
				Text:   text,
				Title:  meta.title,
				Author: meta.author,
				Tags:   usecase.ParseTags(meta.tags),
			})
			if err != nil {
				return fmt.Errorf("add text: %s", domain.Detail(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Text document added.")
			return nil
		},
	}
	meta.register(cmd)
	cmd.Flags().StringVar(&text, "text", "", "document text (read from stdin when empty)")
	return cmd
}

func newDocsPingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the RAG service answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Catalog.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("rag service unreachable: %s", domain.Detail(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "RAG service reachable.")
			return nil
		},
	}
}

func newDocsStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many entries the knowledge base index holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := svc.Chat.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("knowledge base stats: %s", domain.Detail(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Knowledge base entries: %d\n", stats.Count)
			return nil
		},
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
