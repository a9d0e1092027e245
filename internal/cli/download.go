package cli

import (
	"fmt"

	"rezzy/internal/common"
	"rezzy/internal/errors"
	"rezzy/internal/utils"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download your stored resume",
	Long: `Download the resume attached to your profile, or a generated
optimized resume with --optimized. The file lands in the current directory
unless --out names a path.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

var (
	downloadOptimized string
	downloadOut       string
)

func init() {
	downloadCmd.Flags().StringVar(&downloadOptimized, "optimized", "", "Optimized resume ID to download instead of the profile resume")
	downloadCmd.Flags().StringVar(&downloadOut, "out", "", "Destination file path")
}

func runDownload(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.ensureReady(cmd.Context()); err != nil {
		return err
	}

	ctx := cmd.Context()
	var content []byte
	dest := downloadOut

	if downloadOptimized != "" {
		content, err = a.api.DownloadOptimizedResume(ctx, a.session.UserID, downloadOptimized)
		if err != nil {
			return fmt.Errorf("failed to download optimized resume: %w", err)
		}
		if dest == "" {
			dest = downloadOptimized + "_optimized.pdf"
		}
	} else {
		profile, err := a.api.GetProfile(ctx, a.session.UserID)
		if err != nil {
			return fmt.Errorf("failed to look up your resume: %w", err)
		}
		if profile.CurrentResume == nil {
			return errors.NewValidationError(errors.ErrCodeInvalidFormat,
				"no resume on file; upload one with 'rezzy scan'", nil)
		}
		content, err = a.api.DownloadResume(ctx, a.session.UserID, profile.CurrentResume.ID)
		if err != nil {
			return fmt.Errorf("failed to download resume: %w", err)
		}
		if dest == "" {
			dest = profile.CurrentResume.Filename
		}
		if dest == "" {
			dest = "resume.pdf"
		}
	}

	if err := common.NewFileProcessor(a.logger).WriteFile(dest, string(content)); err != nil {
		return err
	}

	a.logger.Info("Resume downloaded", "path", dest, "bytes", len(content))
	fmt.Printf("Saved %s (%s)\n", dest, utils.FormatFileSize(int64(len(content))))
	return nil
}
