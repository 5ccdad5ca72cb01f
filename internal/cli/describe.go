package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/bindgen/internal/compiler"
	"github.com/roach88/bindgen/internal/ir"
)

// ModuleDescription is the describe output for one block.
type ModuleDescription struct {
	Source        string            `json:"source"`
	Module        string            `json:"module"`
	ModuleHash    string            `json:"module_hash"`
	Descriptor    json.RawMessage   `json:"descriptor"`
	Registrations []ir.Registration `json:"-"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	blockOpts := &BlockOptions{}

	cmd := &cobra.Command{
		Use:   "describe [source.go...]",
		Short: "Print the descriptor table of declaration blocks",
		Long: `Compile declaration blocks and print what their module routine would
register, without writing any code.

Text output lists every registration with its access, namespace and
type signature. JSON output carries the canonical descriptor table and
its content hash.

Examples:
  bindgen describe core_functions.bindgen.go
  bindgen describe --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, *blockOpts, args, cmd)
		},
	}

	blockOpts.addFlags(cmd)

	return cmd
}

func runDescribe(opts *RootOptions, blockOpts BlockOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	blocks, err := resolveBlocks(blockOpts, args)
	if err != nil {
		return outputCommandError(formatter, blockErrorCode(err), err.Error())
	}

	descriptions := make([]ModuleDescription, 0, len(blocks.Jobs))
	for _, j := range blocks.Jobs {
		formatter.VerboseLog("Describing %s", j.Source)
		desc, err := describeBlock(j)
		if err != nil {
			return outputCommandError(formatter, errorCode(err), err.Error())
		}
		descriptions = append(descriptions, desc)
	}

	if opts.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: descriptions})
	}
	outputDescribeText(formatter.Writer, descriptions)
	return nil
}

func describeBlock(j job) (ModuleDescription, error) {
	block, err := compiler.CompileFile(j.Source, j.Compile)
	if err != nil {
		return ModuleDescription{}, err
	}
	canonical, err := ir.MarshalCanonical(block.Module.Descriptor())
	if err != nil {
		return ModuleDescription{}, fmt.Errorf("marshal descriptor: %w", err)
	}
	hash, err := ir.ModuleHash(block.Module)
	if err != nil {
		return ModuleDescription{}, err
	}
	return ModuleDescription{
		Source:        j.Source,
		Module:        block.Module.Name,
		ModuleHash:    hash,
		Descriptor:    canonical,
		Registrations: block.Module.Registrations(),
	}, nil
}

func outputDescribeText(w io.Writer, descriptions []ModuleDescription) {
	for i, desc := range descriptions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Module %s (%s)\n", desc.Module, desc.Source)
		if len(desc.Registrations) == 0 {
			fmt.Fprintln(w, "  (no registrations)")
		}
		for _, reg := range desc.Registrations {
			formatRegistration(w, reg)
		}
		fmt.Fprintf(w, "Hash: %s\n", truncateID(desc.ModuleHash))
	}
}

// formatRegistration prints one registration line.
func formatRegistration(w io.Writer, reg ir.Registration) {
	switch reg.Kind {
	case ir.RegisterVar:
		fmt.Fprintf(w, "  var %s = %s\n", reg.Name, reg.Value)
	default:
		fmt.Fprintf(w, "  fn  %-7s %-8s %s\n", reg.Access, reg.Namespace, reg.SignatureString())
	}
}

// truncateID shortens an ID or hash for display.
func truncateID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}
