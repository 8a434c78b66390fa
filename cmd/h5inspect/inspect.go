package main

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dgryski/go-farm"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/hdf5kit/hdf5"
)

// node is one group or dataset in a report.
type node struct {
	Path        string         `yaml:"path"`
	Kind        string         `yaml:"kind"`
	Type        string         `yaml:"type,omitempty"`
	Dims        []uint64       `yaml:"dims,omitempty,flow"`
	Storage     string         `yaml:"storage,omitempty"`
	Attrs       map[string]any `yaml:"attrs,omitempty"`
	Value       any            `yaml:"value,omitempty"`
	Digest      string         `yaml:"digest,omitempty"`
	Fingerprint string         `yaml:"fingerprint,omitempty"`
	Error       string         `yaml:"error,omitempty"`
}

type report struct {
	File  string `yaml:"file"`
	Nodes []node `yaml:"nodes,omitempty"`
	Error string `yaml:"error,omitempty"`
}

type options struct {
	attrs  bool
	digest bool
	where  *vm.Program
}

// compileWhere compiles a boolean filter over the facts of a dataset.
func compileWhere(src string) (*vm.Program, error) {
	if src == "" {
		return nil, nil
	}
	return expr.Compile(src, expr.Env(facts(node{})), expr.AsBool())
}

func facts(n node) map[string]any {
	dims := make([]int, len(n.Dims))
	size := 1
	for i, d := range n.Dims {
		dims[i] = int(d)
		size *= int(d)
	}
	return map[string]any{
		"name":    path.Base(n.Path),
		"path":    n.Path,
		"type":    n.Type,
		"rank":    len(n.Dims),
		"dims":    dims,
		"size":    size,
		"storage": n.Storage,
	}
}

// inspectAll inspects each argument with at most jobs files open at
// once. Reports come back in argument order; a file that fails carries
// its error in its report and does not stop the others.
func inspectAll(args []string, opts options, jobs int, logger *zap.Logger) []report {
	reports := make([]report, len(args))
	var eg errgroup.Group
	eg.SetLimit(max(jobs, 1))
	for i, arg := range args {
		eg.Go(func() error {
			reports[i] = inspectArg(arg, opts)
			logger.Debug("inspected file",
				zap.String("arg", arg),
				zap.Int("objects", len(reports[i].Nodes)),
				zap.String("error", reports[i].Error))
			return nil
		})
	}
	// No goroutine fails; the group only bounds concurrency.
	_ = eg.Wait()
	return reports
}

// inspectArg inspects a whole file, or a single attribute when arg has
// the form file.h5:/object@attribute.
func inspectArg(arg string, opts options) report {
	if i := strings.LastIndex(arg, ":"); i > 0 && strings.Contains(arg[i+1:], "@") {
		return inspectAttr(arg[:i], arg[i+1:])
	}
	return inspect(arg, opts)
}

func inspectAttr(file, attrPath string) report {
	r := report{File: file}
	objPath, name, err := hdf5.ParseAttrPath(attrPath)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	f, err := hdf5.OpenFile(file, hdf5.ModeIn)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	defer f.Close()

	n := node{Path: hdf5.JoinAttrPath(objPath, name), Kind: "attribute"}
	var obj hdf5.Object = f
	switch {
	case objPath == "/":
	case hdf5.ExistsGroup(f, objPath):
		g, err := hdf5.OpenGroup(f, objPath)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		defer g.Close()
		obj = g
	default:
		ds, err := hdf5.OpenDataset(f, objPath)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		defer ds.Close()
		obj = ds
	}
	if n.Value, err = hdf5.AttributeValue(obj, name); err != nil {
		n.Error = err.Error()
	}
	r.Nodes = append(r.Nodes, n)
	return r
}

func inspect(file string, opts options) report {
	r := report{File: file}
	f, err := hdf5.OpenFile(file, hdf5.ModeIn)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	defer f.Close()
	root, err := f.Root()
	if err != nil {
		r.Error = err.Error()
		return r
	}
	defer root.Close()

	err = hdf5.Walk(root, func(p string, obj any, err error) error {
		if err != nil {
			r.Nodes = append(r.Nodes, node{Path: p, Kind: "unknown", Error: err.Error()})
			return nil
		}
		var n node
		switch o := obj.(type) {
		case *hdf5.Group:
			n = node{Path: p, Kind: "group"}
		case *hdf5.Dataset:
			n = describe(o, opts)
			if opts.where != nil && n.Error == "" {
				keep, err := expr.Run(opts.where, facts(n))
				if err != nil {
					return fmt.Errorf("evaluating filter on %s: %w", p, err)
				}
				if !keep.(bool) {
					return nil
				}
			}
		}
		if opts.attrs {
			n.Attrs = attributes(obj.(hdf5.Object))
		}
		r.Nodes = append(r.Nodes, n)
		return nil
	})
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func describe(ds *hdf5.Dataset, opts options) node {
	n := node{Path: ds.Name(), Kind: "dataset"}
	t, err := ds.Type()
	if err != nil {
		n.Error = err.Error()
		return n
	}
	space, err := ds.Dataspace()
	if err != nil {
		n.Error = err.Error()
		return n
	}
	st, err := ds.Storage()
	if err != nil {
		n.Error = err.Error()
		return n
	}
	n.Type, n.Dims, n.Storage = t.String(), space.Extents(), storageName(st)
	if opts.digest {
		buf := make([]byte, space.Elements()*uint64(t.Size()))
		if err := ds.ReadRaw(t, buf); err != nil {
			n.Error = err.Error()
			return n
		}
		n.Digest = digest.FromBytes(buf).String()
		n.Fingerprint = fmt.Sprintf("%016x", farm.Fingerprint64(buf))
	}
	return n
}

func storageName(st hdf5.Storage) string {
	switch s := st.(type) {
	case hdf5.Compact:
		return "compact"
	case hdf5.Chunked:
		name := fmt.Sprintf("chunked%v", s.Dims)
		for _, f := range s.Filters {
			switch f := f.(type) {
			case hdf5.Deflate:
				name += fmt.Sprintf("+deflate(%d)", f.Level)
			case hdf5.Shuffle:
				name += "+shuffle"
			case hdf5.Fletcher32:
				name += "+fletcher32"
			}
		}
		return name
	}
	return "contiguous"
}

func attributes(obj hdf5.Object) map[string]any {
	names, err := hdf5.Attributes(obj)
	if err != nil || len(names) == 0 {
		return nil
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		v, err := hdf5.AttributeValue(obj, name)
		if err != nil {
			v = "<" + err.Error() + ">"
		}
		out[name] = v
	}
	return out
}

func writeYAML(w io.Writer, reports []report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, reports []report) error {
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, r.File); err != nil {
			return err
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
		for _, n := range r.Nodes {
			if n.Kind == "attribute" {
				line := "  " + n.Path
				if n.Error != "" {
					line += "  error: " + n.Error
				} else {
					line += fmt.Sprintf(" = %v", n.Value)
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
				continue
			}
			depth := strings.Count(n.Path, "/")
			if n.Path == "/" {
				depth = 0
			}
			indent := strings.Repeat("  ", depth+1)
			line := indent + path.Base(n.Path)
			if n.Path == "/" {
				line = indent
			}
			switch {
			case n.Error != "":
				line += "  error: " + n.Error
			case n.Kind == "group":
				line += "/"
			default:
				line += fmt.Sprintf("  %s %v %s", n.Type, n.Dims, n.Storage)
				if n.Digest != "" {
					line += "  " + n.Digest + " farm:" + n.Fingerprint
				}
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
			for _, k := range sortedKeys(n.Attrs) {
				fmt.Fprintf(w, "%s  @%s = %v\n", indent, k, n.Attrs[k])
			}
		}
	}
	return nil
}
