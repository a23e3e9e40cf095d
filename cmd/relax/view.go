package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relax/internal/colormap"
	"relax/internal/export"
	"relax/internal/viewer"
)

func (a *app) viewCmd() *cobra.Command {
	var paletteName string
	cmd := &cobra.Command{
		Use:   "view FILE.csv",
		Short: "Show a field written by laplace or disk as a heat map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			palette, err := colormap.Lookup(paletteName)
			if err != nil {
				return err
			}
			f, err := export.ReadFile(args[0])
			if err != nil {
				return err
			}
			a.logger.Info("viewing field", zap.String("path", args[0]), zap.Int("n", f.N()))
			return viewer.ShowField(f, viewer.Options{
				Title:       "relax " + args[0],
				Palette:     palette,
				ShowOverlay: true,
				Logger:      a.logger,
			})
		},
	}
	cmd.Flags().StringVar(&paletteName, "palette", colormap.Viridis.Name(), "colour palette: viridis or coolwarm")
	return cmd
}

func (a *app) renderCmd() *cobra.Command {
	var (
		paletteName string
		symmetric   bool
	)
	cmd := &cobra.Command{
		Use:   "render FILE.csv OUT.png",
		Short: "Render a field to a PNG heat map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			palette, err := colormap.Lookup(paletteName)
			if err != nil {
				return err
			}
			f, err := export.ReadFile(args[0])
			if err != nil {
				return err
			}
			scale := colormap.AutoScale(f)
			if symmetric {
				scale = scale.Symmetric()
			}
			if err := writePNG(args[1], colormap.Image(f, palette, scale)); err != nil {
				return err
			}
			a.logger.Info("field rendered",
				zap.String("input", args[0]),
				zap.String("output", args[1]),
				zap.Float32("min", scale.Lo),
				zap.Float32("max", scale.Hi))
			return nil
		},
	}
	cmd.Flags().StringVar(&paletteName, "palette", colormap.Viridis.Name(), "colour palette: viridis or coolwarm")
	cmd.Flags().BoolVar(&symmetric, "symmetric", false, "centre the colour scale on zero")
	return cmd
}

func writePNG(path string, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("render: closing %s: %w", path, cerr)
		}
	}()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("render: encoding %s: %w", path, err)
	}
	return nil
}
