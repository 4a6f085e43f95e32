package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"wine-concierge-be/internal/dto"
	"wine-concierge-be/pkg/apperr"

	"github.com/spf13/cobra"
)

var askLocation string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question through the concierge",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := indexService.Ensure(ctx); err != nil {
			warnColor.Fprintln(cmd.ErrOrStderr(), "index unavailable:", err)
		}

		res := conciergeService.Ask(ctx, &dto.AskRequest{
			Query:    strings.Join(args, " "),
			Location: askLocation,
		})
		printAnswer(cmd, res.Response)
		return nil
	},
}

var weatherCmd = &cobra.Command{
	Use:   "weather [location]",
	Short: "Show current weather (default location when omitted)",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := conciergeService.Weather(cmd.Context(), strings.Join(args, " "))
		printAnswer(cmd, res.Response)
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the document index from the docs directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := indexService.Refresh(cmd.Context(), "cli")
		if errors.Is(err, apperr.ErrNoDocuments) {
			warnColor.Fprintln(cmd.OutOrStdout(), apperr.WarningMarker, "No documents with extractable text; index unchanged.")
			return nil
		}
		if err != nil {
			return err
		}

		chunks := 0
		if res.Index != nil {
			chunks = res.Index.Len()
		}
		okColor.Fprintf(cmd.OutOrStdout(), "✅ Indexed %d documents into %d chunks in %s\n",
			res.Documents, chunks, res.Duration.Round(time.Millisecond))
		for _, sk := range res.Skipped {
			warnColor.Fprintf(cmd.OutOrStdout(), "   skipped %s: %s\n", sk.Source, sk.Reason)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted index and last build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := indexService.Ensure(ctx); err != nil {
			return err
		}
		st, err := indexService.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(cmd, st)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askLocation, "location", "l", "", "location for weather questions")
	rootCmd.AddCommand(askCmd, weatherCmd, reindexCmd, statusCmd)
}

func printAnswer(cmd *cobra.Command, text string) {
	if strings.HasPrefix(text, apperr.WarningMarker) {
		warnColor.Fprintln(cmd.OutOrStdout(), text)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
}

func printStatus(cmd *cobra.Command, st *dto.IndexStatusResponse) {
	out := cmd.OutOrStdout()
	headColor.Fprintln(out, "Document index")
	if !st.Ready {
		warnColor.Fprintln(out, "  no index built yet")
	} else {
		fmt.Fprintf(out, "  build:     %s\n", st.BuildId)
		fmt.Fprintf(out, "  embedder:  %s (%d dims)\n", st.Embedder, st.Dimension)
		fmt.Fprintf(out, "  chunks:    %d\n", st.Chunks)
		fmt.Fprintf(out, "  sources:   %s\n", strings.Join(st.Sources, ", "))
		if st.BuiltAt != nil {
			fmt.Fprintf(out, "  built at:  %s\n", st.BuiltAt.Format(time.RFC3339))
		}
	}

	if st.LastBuild != nil {
		headColor.Fprintln(out, "Last build")
		fmt.Fprintf(out, "  %s (%s) %d docs, %d chunks, %dms\n",
			st.LastBuild.Status, st.LastBuild.Reason, st.LastBuild.Documents, st.LastBuild.Chunks, st.LastBuild.DurationMs)
		if st.LastBuild.Error != "" {
			errColor.Fprintf(out, "  error: %s\n", st.LastBuild.Error)
		}
	}
}
