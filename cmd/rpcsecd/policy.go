package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clusterfs/rpcsec/pkg/secpolicy"
	"github.com/clusterfs/rpcsec/pkg/secpolicy/nullpolicy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the registered security policies",
	Long: `policy commands operate on a registry seeded with this process's
built-in policies. Since pkg/secpolicy.Registry has no enumeration
primitive of its own (spec section 4.A specifies register/lookup/
unregister, not a directory listing), this command walks the fixed set
of policies rpcsecd knows how to build rather than an arbitrary
runtime-loaded set.`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the policies this build can register",
	RunE:  runPolicyList,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd)
}

// builtinPolicies returns a fresh instance of every secpolicy.Policy
// this build ships. Additional mechanisms (sk, GSS) register here once
// their packages exist.
func builtinPolicies() []secpolicy.Policy {
	return []secpolicy.Policy{
		nullpolicy.New(),
	}
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	registry := secpolicy.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "NAME\tNUMBER\tMODULE\tSERVER-SIDE")

	for _, p := range builtinPolicies() {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("failed to register %s: %w", p.Name(), err)
		}
		hasServer := "no"
		if p.Server() != nil {
			hasServer = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.Name(), p.Number(), p.Module(), hasServer)
	}
	return nil
}
