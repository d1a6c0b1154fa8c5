package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clusterfs/rpcsec/pkg/netlinkyaml"
)

var codecFlags struct {
	in  string
	out string
}

var codecCmd = &cobra.Command{
	Use:   "codec",
	Short: "Exercise the netlink attribute tree <-> YAML bridge",
}

var codecDecodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a round stream into YAML",
	Long: `decode reads --in as a JSON array of netlinkyaml.Round values (each
either a key-table round building the dictionary tree, or a value
round rendered against it) and writes the resulting YAML document to
--out. This is a stand-in for the real Netlink multicast feed: it lets
the decoder be exercised against a recorded round sequence without a
kernel socket.

Example round file (field names match netlinkyaml.KeyTableAttr/
ValueAttr's exported Go fields):
  [
    {"IsKeyTable": true, "KeyTable": [
      {"Kind": 0, "ListSize": 1},
      {"Kind": 1, "Index": 1},
      {"Kind": 3, "Value": "name"}
    ]},
    {"IsKeyTable": false, "Value": [
      {"SlotIndex": 1, "IsString": true, "Str": "mds-0001"}
    ]}
  ]`,
	RunE: runCodecDecode,
}

var codecEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a YAML document into a netlink attribute tree",
	Long: `encode reads --in as a YAML document and writes the assembled
netlinkyaml.EncodedAttr tree to --out as JSON, using the first
non-indented scalar key as the resolved multicast group name.`,
	RunE: runCodecEncode,
}

func init() {
	rootCmd.AddCommand(codecCmd)
	codecCmd.AddCommand(codecDecodeCmd, codecEncodeCmd)

	for _, c := range []*cobra.Command{codecDecodeCmd, codecEncodeCmd} {
		c.Flags().StringVar(&codecFlags.in, "in", "", "input file (default stdin)")
		c.Flags().StringVar(&codecFlags.out, "out", "", "output file (default stdout)")
	}
}

// jsonRound is the on-disk JSON shape of netlinkyaml.Round, since the
// package's own struct carries no encoding tags (it is built for wire
// decoding, not file interchange).
type jsonRound struct {
	IsKeyTable bool
	KeyTable   []netlinkyaml.KeyTableAttr `json:",omitempty"`
	Value      []netlinkyaml.ValueAttr    `json:",omitempty"`
}

type sliceRoundSource struct {
	rounds []jsonRound
	next   int
}

func (s *sliceRoundSource) NextRound() (netlinkyaml.Round, bool) {
	if s.next >= len(s.rounds) {
		return netlinkyaml.Round{}, false
	}
	r := s.rounds[s.next]
	s.next++
	more := s.next < len(s.rounds)
	return netlinkyaml.Round{IsKeyTable: r.IsKeyTable, KeyTable: r.KeyTable, Value: r.Value}, more
}

func openIn() (io.ReadCloser, error) {
	if codecFlags.in == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(codecFlags.in)
}

func openOut() (io.WriteCloser, error) {
	if codecFlags.out == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(codecFlags.out)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func runCodecDecode(cmd *cobra.Command, args []string) error {
	in, err := openIn()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	var rounds []jsonRound
	if err := json.NewDecoder(in).Decode(&rounds); err != nil {
		return fmt.Errorf("failed to parse round file: %w", err)
	}

	out, err := openOut()
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer out.Close()

	dec := netlinkyaml.NewStreamDecoder(&sliceRoundSource{rounds: rounds}, nil)
	if _, err := io.Copy(out, dec); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func runCodecEncode(cmd *cobra.Command, args []string) error {
	in, err := openIn()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := openOut()
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer out.Close()

	var tree []*netlinkyaml.EncodedAttr
	var group string
	enc := netlinkyaml.NewEncoder(func(g string, attrs []*netlinkyaml.EncodedAttr) error {
		group = g
		tree = attrs
		return nil
	})

	if _, err := io.Copy(enc, in); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode flush failed: %w", err)
	}

	result := struct {
		Group string                     `json:"group"`
		Attrs []*netlinkyaml.EncodedAttr `json:"attrs"`
	}{Group: group, Attrs: tree}

	return json.NewEncoder(out).Encode(result)
}
