package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/upload-surgery/core"
	"github.com/ankit-chaubey/upload-surgery/core/audio"
	"github.com/ankit-chaubey/upload-surgery/core/config"
	"github.com/ankit-chaubey/upload-surgery/core/dispatch"
	"github.com/ankit-chaubey/upload-surgery/core/document"
	"github.com/ankit-chaubey/upload-surgery/core/image"
	"github.com/ankit-chaubey/upload-surgery/core/logger"
	"github.com/ankit-chaubey/upload-surgery/core/naming"
	"github.com/ankit-chaubey/upload-surgery/core/video"
)

var (
	configPath string
	jsonOut    bool
	verbose    bool

	cfg config.Config
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "surgery",
		Short:         "Strip identifying metadata from files before upload",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if verbose {
				level = "debug"
			}
			logger.Init(level, cfg.Log.Format)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to surgery.toml or .yaml")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and detailed reports")

	root.AddCommand(viewCmd(), stripCmd(), formatsCmd())
	return root
}

func viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <file>",
		Short: "Show the metadata a file carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			m, err := viewer(path, data)
			if err != nil {
				return err
			}
			core.NewPrinter(jsonOut, verbose).PrintMetadata(m)
			return nil
		},
	}
}

// viewer picks a metadata viewer by content, falling back to the extension.
func viewer(path string, data []byte) (*core.Metadata, error) {
	name := filepath.Base(path)
	kind, ok := core.Sniff(data)
	if !ok {
		kind, _ = core.KindFromName(name)
	}
	switch kind {
	case core.Jpeg, core.Png, core.Gif:
		return image.View(name, data)
	case core.Mp3, core.Flac:
		return audio.View(name, data)
	case core.Pdf:
		return document.View(name, data)
	}
	if len(data) >= 8 && string(data[4:8]) == "ftyp" {
		return video.View(name, data)
	}
	return nil, fmt.Errorf("%s: no metadata viewer: %w", name, core.ErrUnsupportedFormat)
}

func stripCmd() *cobra.Command {
	var (
		outPath   string
		mime      string
		randomize bool
	)
	cmd := &cobra.Command{
		Use:   "strip <file>",
		Short: "Write a copy of a file with its metadata removed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			d := dispatch.New(cfg.DispatchOptions(), logger.L)
			out, rep := d.StripWithReport(core.InputFile{
				Name:         filepath.Base(path),
				DeclaredMime: mime,
				Bytes:        data,
			})

			dst := core.ResolveOutPath(path, outPath)
			if randomize || cfg.Naming.Randomize {
				dst = naming.RandomizePath(dst, cfg.Naming.Prefix)
			}
			if err := os.WriteFile(dst, out.Bytes, 0o644); err != nil {
				return err
			}
			core.NewPrinter(jsonOut, verbose).PrintReport(rep, dst, data, out.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (default <name>_clean.<ext>)")
	cmd.Flags().StringVar(&mime, "mime", "", "declared MIME type of the upload")
	cmd.Flags().BoolVar(&randomize, "randomize-name", false, "replace the output file name with a random one")
	return cmd
}

func formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			core.NewPrinter(jsonOut, verbose).PrintFormats(core.Formats())
		},
	}
}
