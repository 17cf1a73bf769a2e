package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/polybotservice/polybot/internal/imgproc"
	"github.com/spf13/cobra"
)

// concatName selects imgproc Concat from the transform command.
const concatName = "concat"

type transformOptions struct {
	name      string
	path      string
	kernel    int
	seed      uint64
	with      string
	direction string
	normalize bool
	output    string
}

func transformCmd() *cobra.Command {
	var opts transformOptions
	cmd := &cobra.Command{
		Use:   "transform <name> <image>",
		Short: "Apply a filter to a local image and print the output path",
		Long: "Apply a filter to a local image. Names: " + strings.Join(transformNames(), ", ") + ".\n" +
			"The result is written next to the input with a " + imgproc.FilteredSuffix + " suffix unless --output is set.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.name, opts.path = args[0], args[1]
			out, err := runTransform(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.kernel, "kernel", imgproc.DefaultBlurKernel, "Blur block size")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Salt and pepper seed (0 picks a random one)")
	cmd.Flags().StringVar(&opts.with, "with", "", "Second image for concat (defaults to the input itself)")
	cmd.Flags().StringVar(&opts.direction, "direction", string(imgproc.Horizontal), "Concat direction: horizontal or vertical")
	cmd.Flags().BoolVar(&opts.normalize, "normalize", true, "Stretch the output range onto 0-255")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output path")
	return cmd
}

func transformNames() []string {
	names := []string{concatName}
	for _, n := range imgproc.Transforms() {
		names = append(names, string(n))
	}
	return names
}

func runTransform(opts transformOptions) (string, error) {
	g, err := imgproc.Load(opts.path)
	if err != nil {
		return "", err
	}

	if opts.name == concatName {
		other := g
		if opts.with != "" {
			if other, err = imgproc.Load(opts.with); err != nil {
				return "", err
			}
		}
		if err := g.Concat(other, imgproc.Direction(opts.direction)); err != nil {
			return "", err
		}
	} else {
		if opts.name == string(imgproc.TransformBlur) && opts.kernel <= 0 {
			return "", errors.New("transform: --kernel must be positive")
		}
		var src imgproc.Float64Source
		if opts.seed != 0 {
			src = rand.New(rand.NewPCG(opts.seed, opts.seed))
		}
		err := imgproc.Apply(g, imgproc.TransformName(opts.name), imgproc.Options{Kernel: opts.kernel, Rand: src})
		if err != nil {
			return "", err
		}
	}

	save := imgproc.SaveOptions{Normalize: opts.normalize}
	if opts.output != "" {
		return g.SaveAs(opts.output, save)
	}
	return g.SaveWith(save)
}
