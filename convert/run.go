// Package convert implements the convert subcommand: reading design
// snapshots, driving the email markup engine and writing results out.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"demc/archive"
	"demc/config"
	"demc/convert/email"
	"demc/design"
	"demc/state"
)

const snapshotExt = ".json"

// input is one design snapshot to be converted. rel keeps the position
// relative to the source root so directory structure can be reproduced.
type input struct {
	path string
	rel  string
	data []byte
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	// command line overrides configuration
	if v := cmd.String("images"); v != "" {
		mode, err := config.ParseImageExportMode(v)
		if err != nil {
			log.Warn("Unknown image mode requested, switching to placeholder", zap.Error(err))
			mode = config.ImageExportModePlaceholder
		}
		env.Cfg.Document.Images.Mode = mode
	}
	if v := cmd.String("width"); v != "" {
		mode, err := config.ParseWidthMode(v)
		if err != nil {
			log.Warn("Unknown width mode requested, switching to fluid", zap.Error(err))
			mode = config.WidthModeFluid
		}
		env.Cfg.Document.Width.Mode = mode
	}
	env.NoDirs, env.Overwrite, env.Archive = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("archive")

	inputs, err := collectInputs(src, log)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		log.Warn("Nothing to convert", zap.String("source", src))
		return nil
	}

	gen := email.New(email.OptionsFromConfig(env.Cfg), log)

	var errs error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := processSnapshot(ctx, gen, in, dst, env, log); err != nil {
			log.Error("Conversion failed", zap.String("source", in.path), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", in.rel, err))
		}
	}
	return errs
}

// collectInputs enumerates snapshots: a single file, all snapshot files under
// a directory, or all snapshot files inside a zip archive. Multi-file sources
// are processed in natural name order.
func collectInputs(src string, log *zap.Logger) ([]*input, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("unable to access source: %w", err)
	}

	switch {
	case fi.Mode().IsRegular() && strings.EqualFold(filepath.Ext(src), ".zip"):
		var inputs []*input
		err := archive.Walk(src, "", func(arc string, name string, data []byte) error {
			if !strings.EqualFold(filepath.Ext(name), snapshotExt) {
				return nil
			}
			inputs = append(inputs, &input{path: arc + "!" + name, rel: name, data: data})
			return nil
		})
		if err != nil {
			return nil, err
		}
		sortInputs(inputs)
		return inputs, nil

	case fi.Mode().IsRegular():
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		return []*input{{path: src, rel: filepath.Base(src), data: data}}, nil

	case fi.IsDir():
		var inputs []*input
		err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(path), snapshotExt) {
				return nil
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			inputs = append(inputs, &input{path: path, rel: rel, data: data})
			return nil
		})
		if err != nil {
			return nil, err
		}
		sortInputs(inputs)
		return inputs, nil

	default:
		log.Warn("Source is neither file nor directory", zap.String("source", src))
		return nil, nil
	}
}

func sortInputs(inputs []*input) {
	sort.SliceStable(inputs, func(i, j int) bool { return natural.Less(inputs[i].rel, inputs[j].rel) })
}

func processSnapshot(ctx context.Context, gen *email.Generator, in *input, dst string, env *state.LocalEnv, log *zap.Logger) error {
	if env.Rpt != nil {
		env.Rpt.StoreData(filepath.ToSlash(filepath.Join("input", filepath.Base(in.rel))), in.data)
	}

	doc, err := design.Parse(in.data)
	if err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(filepath.ToSlash(filepath.Join("input", filepath.Base(in.rel)+".tree.txt")), []byte(design.DumpTree(doc.Roots)))
	}

	res, err := gen.Generate(ctx, doc, doc.Roots)
	if err != nil {
		return err
	}
	if res.HTML == "" {
		// nothing renderable - surface the notice, not an error
		log.Warn("Snapshot produced no output", zap.String("source", in.path))
		return nil
	}

	outPath := buildOutputPath(doc, in.rel, dst, env)
	log.Info("Converting", zap.String("from", in.path), zap.String("to", outPath))

	if env.Archive {
		if err := writeBundle(outPath, res, env.Overwrite); err != nil {
			return err
		}
	} else if err := writeResult(outPath, res, env.Overwrite); err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(filepath.ToSlash(filepath.Join("output", filepath.Base(outPath))), []byte(res.HTML))
	}
	return nil
}

// writeResult stores the fragment next to its exported images.
func writeResult(outPath string, res *email.Result, overwrite bool) error {
	if err := checkDestination(outPath, overwrite); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(res.HTML), 0644); err != nil {
		return err
	}
	if len(res.Assets) == 0 {
		return nil
	}
	imagesDir := filepath.Join(filepath.Dir(outPath), "images")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return err
	}
	for _, a := range res.Assets {
		if err := os.WriteFile(filepath.Join(imagesDir, a.Name), a.Data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func checkDestination(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("destination %q already exists, use --overwrite to replace it", path)
	}
	return nil
}
