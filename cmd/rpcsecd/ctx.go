package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/sec"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
	"github.com/clusterfs/rpcsec/pkg/secpolicy/nullpolicy"
)

var ctxFlags struct {
	flavorName string
	uid        uint32
	gid        uint32
}

var ctxCmd = &cobra.Command{
	Use:   "ctx",
	Short: "Inspect Sec/CliCtx state for an import",
}

var ctxInspectCmd = &cobra.Command{
	Use:   "inspect <import-name>",
	Short: "Bind an import to a flavor and show the CliCtx it mints",
	Long: `inspect builds an import bound to --flavor (default "null"), mints a
CliCtx for --uid/--gid, and prints the resulting Sec/CliCtx state. It
is meant for exercising the binding path interactively, not for
inspecting a running rpcsecd's live state — each invocation builds its
own throwaway registry and import, mirroring how the library itself
has no cross-process state to query (spec.md scopes process-external
introspection out).

Examples:
  rpcsecd ctx inspect mds-0001
  rpcsecd ctx inspect mds-0001 --flavor null --uid 1000 --gid 1000`,
	Args: cobra.ExactArgs(1),
	RunE: runCtxInspect,
}

func init() {
	rootCmd.AddCommand(ctxCmd)
	ctxCmd.AddCommand(ctxInspectCmd)

	ctxInspectCmd.Flags().StringVar(&ctxFlags.flavorName, "flavor", "null", "named base flavor to bind")
	ctxInspectCmd.Flags().Uint32Var(&ctxFlags.uid, "uid", 0, "credential uid")
	ctxInspectCmd.Flags().Uint32Var(&ctxFlags.gid, "gid", 0, "credential gid")
}

func runCtxInspect(cmd *cobra.Command, args []string) error {
	importName := args[0]

	f, _, err := flavor.ParseName(ctxFlags.flavorName)
	if err != nil {
		return fmt.Errorf("invalid flavor %q: %w", ctxFlags.flavorName, err)
	}

	registry := secpolicy.NewRegistry()
	if f.Policy == flavor.PolicyNull {
		if err := registry.Register(nullpolicy.New()); err != nil {
			return fmt.Errorf("failed to register null policy: %w", err)
		}
	} else {
		return fmt.Errorf("no production policy registered for %q in this build yet", ctxFlags.flavorName)
	}

	imp := sec.NewImport(importName)
	s, err := sec.CreateSec(imp, registry, nil, f, secpolicy.PartClient, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to create sec: %w", err)
	}
	defer s.Put()

	cred := secpolicy.Cred{UID: ctxFlags.uid, GID: ctxFlags.gid}
	cliCtx, err := s.GetMyCtx(cred)
	if err != nil {
		return fmt.Errorf("failed to mint context: %w", err)
	}
	defer cliCtx.Put()

	fmt.Printf("import:     %s\n", importName)
	fmt.Printf("flavor:     %s\n", ctxFlags.flavorName)
	fmt.Printf("policy:     %s (number %d)\n", s.Policy().Name(), s.Policy().Number())
	fmt.Printf("part:       %v\n", s.Part())
	fmt.Printf("cred:       uid=%d gid=%d\n", cred.UID, cred.GID)
	fmt.Printf("ctx.new:        %v\n", cliCtx.IsNew())
	fmt.Printf("ctx.uptodate:   %v\n", cliCtx.IsUptodate())
	fmt.Printf("ctx.eternal:    %v\n", cliCtx.IsEternal())
	fmt.Printf("ctx.error:      %v\n", cliCtx.IsError())
	fmt.Printf("ctx.dead:       %v\n", cliCtx.IsDead())

	return nil
}
