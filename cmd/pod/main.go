package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"xdao.co/pod/cidutil"
	"xdao.co/pod/keys"
	"xdao.co/pod/pod"
)

const (
	formatFull       = "full"
	formatJSON       = "json"
	formatSimplified = "simplified"
)

var errInvalidSignature = errors.New("signature is invalid")

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	t := &tool{log: zap.NewNop()}
	if err := t.app(in, out, errOut).Run(args); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

// tool holds state shared by all commands of one invocation.
type tool struct {
	log *zap.Logger
}

var (
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "log diagnostics to stderr",
	}
	keyDirFlag = cli.StringFlag{
		Name:    "key-dir",
		Usage:   "key store directory (default ~/.xdao/pod-keys)",
		EnvVars: []string{"POD_KEY_DIR"},
	}
	podFormatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "POD input format: full or json",
		Value: formatFull,
	}
)

func (t *tool) app(in io.Reader, out io.Writer, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "pod",
		Usage:     "sign, verify and convert Provable Object Data",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&verboseFlag,
			&keyDirFlag,
		},
		Before: func(c *cli.Context) error {
			t.log = newLogger(c.Bool(verboseFlag.Name), c.App.ErrWriter)
			return nil
		},
		After: func(c *cli.Context) error {
			_ = t.log.Sync()
			return nil
		},
		// Errors are reported by run.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			t.signCmd(),
			t.verifyCmd(),
			t.convertCmd(),
			t.proofCmd(),
			t.cidCmd(),
			t.keyCmd(),
		},
	}
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(zapcore.DebugLevel)))
}

func (t *tool) signCmd() *cli.Command {
	return &cli.Command{
		Name:      "sign",
		Usage:     "sign entries and print the POD",
		ArgsUsage: "[entries-file|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Usage: "entries input format: full, json or simplified", Value: formatJSON},
			&cli.StringFlag{Name: "output", Usage: "POD output format: full or json", Value: formatFull},
			&cli.StringFlag{Name: "private-key", Usage: "private key as 64 hex chars or Base64", EnvVars: []string{"POD_PRIVATE_KEY"}},
			&cli.StringFlag{Name: "signer", Usage: "stored key name"},
			&cli.StringFlag{Name: "signer-role", Usage: "role key of --signer"},
			&cli.StringFlag{Name: "key-file", Usage: "file holding the private key"},
		},
		Action: func(c *cli.Context) error {
			data, source, err := readInput(c)
			if err != nil {
				return err
			}
			entries, err := decodeEntries(c.String("format"), data)
			if err != nil {
				return fmt.Errorf("read entries from %s: %w", source, err)
			}
			ks, err := keys.CreateKeyStore(c.String(keyDirFlag.Name))
			if err != nil {
				return fmt.Errorf("keys: %w", err)
			}
			privateKey, err := ks.LoadPrivateKey(c.String("private-key"), c.String("signer"), c.String("signer-role"), c.String("key-file"))
			if err != nil {
				return fmt.Errorf("load signer: %w", err)
			}
			p, err := keys.SignEntries(entries, privateKey)
			if err != nil {
				return err
			}
			t.log.Debug("signed POD",
				zap.Int("entries", p.Content().Size()),
				zap.Stringer("contentID", p.ContentID()),
				zap.String("signer", p.SignerPublicKey()))
			s, err := encodePOD(c.String("output"), p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, s)
			return err
		},
	}
}

func (t *tool) verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check the signature of a POD",
		ArgsUsage: "[pod-file|-]",
		Flags:     []cli.Flag{&podFormatFlag},
		Action: func(c *cli.Context) error {
			p, err := t.loadPOD(c)
			if err != nil {
				return err
			}
			if !p.VerifySignature() {
				t.log.Debug("signature check failed", zap.String("signer", p.SignerPublicKey()))
				return errInvalidSignature
			}
			_, err = fmt.Fprintln(c.App.Writer, "signature is valid")
			return err
		},
	}
}

func (t *tool) convertCmd() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert entries between serialization formats",
		ArgsUsage: "[entries-file|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "input format: full, json or simplified", Value: formatJSON},
			&cli.StringFlag{Name: "to", Usage: "output format: full, json or simplified", Value: formatFull},
		},
		Action: func(c *cli.Context) error {
			data, source, err := readInput(c)
			if err != nil {
				return err
			}
			entries, err := decodeEntries(c.String("from"), data)
			if err != nil {
				return fmt.Errorf("read entries from %s: %w", source, err)
			}
			s, err := encodeEntries(c.String("to"), entries)
			if err != nil {
				return err
			}
			t.log.Debug("converted entries",
				zap.String("from", c.String("from")),
				zap.String("to", c.String("to")),
				zap.Int("entries", len(entries)))
			_, err = fmt.Fprintln(c.App.Writer, s)
			return err
		},
	}
}

type proofOutput struct {
	Name      string   `json:"name"`
	Root      string   `json:"root"`
	Leaf      string   `json:"leaf"`
	Index     uint64   `json:"index"`
	Siblings  []string `json:"siblings"`
	NameHash  string   `json:"nameHash"`
	ValueHash string   `json:"valueHash"`
	Value     string   `json:"value,omitempty"`
}

func (t *tool) proofCmd() *cli.Command {
	return &cli.Command{
		Name:      "proof",
		Usage:     "print the circuit signals for one entry of a POD",
		ArgsUsage: "[pod-file|-]",
		Flags: []cli.Flag{
			&podFormatFlag,
			&cli.StringFlag{Name: "name", Usage: "entry name", Required: true},
		},
		Action: func(c *cli.Context) error {
			p, err := t.loadPOD(c)
			if err != nil {
				return err
			}
			name := c.String("name")
			signals, err := p.Content().GenerateEntryCircuitSignals(name)
			if err != nil {
				return err
			}
			if !pod.VerifyEntryProof(signals.Proof) {
				return fmt.Errorf("proof for %s does not verify", name)
			}
			po := proofOutput{
				Name:      name,
				Root:      signals.Proof.Root.String(),
				Leaf:      signals.Proof.Leaf.String(),
				Index:     signals.Proof.Index,
				Siblings:  make([]string, len(signals.Proof.Siblings)),
				NameHash:  signals.NameHash.String(),
				ValueHash: signals.ValueHash.String(),
			}
			for i, s := range signals.Proof.Siblings {
				po.Siblings[i] = s.String()
			}
			if signals.Value != nil {
				po.Value = signals.Value.String()
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(po)
		},
	}
}

func (t *tool) cidCmd() *cli.Command {
	return &cli.Command{
		Name:      "cid",
		Usage:     "print the CIDv1 of a POD's full-fidelity serialization",
		ArgsUsage: "[pod-file|-]",
		Flags:     []cli.Flag{&podFormatFlag},
		Action: func(c *cli.Context) error {
			p, err := t.loadPOD(c)
			if err != nil {
				return err
			}
			id, err := cidutil.PODCID(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, id)
			return err
		},
	}
}

func (t *tool) loadPOD(c *cli.Context) (*pod.POD, error) {
	data, source, err := readInput(c)
	if err != nil {
		return nil, err
	}
	p, err := decodePOD(c.String(podFormatFlag.Name), data)
	if err != nil {
		return nil, fmt.Errorf("read POD from %s: %w", source, err)
	}
	t.log.Debug("loaded POD", zap.String("source", source), zap.Stringer("contentID", p.ContentID()))
	return p, nil
}

// readInput reads the file named by the first argument, or stdin when it is
// absent or "-".
func readInput(c *cli.Context) ([]byte, string, error) {
	path := c.Args().First()
	if path == "" || path == "-" {
		b, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return b, "stdin", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return b, filepath.Base(path), nil
}

func decodeEntries(format string, data []byte) (pod.Entries, error) {
	switch format {
	case formatFull:
		return pod.DeserializeEntries(string(data))
	case formatJSON:
		return pod.UnmarshalJSONEntries(data)
	case formatSimplified:
		return pod.EntriesFromSimplifiedJSON(string(data))
	default:
		return nil, fmt.Errorf("unknown entries format %q", format)
	}
}

func encodeEntries(format string, entries pod.Entries) (string, error) {
	switch format {
	case formatFull:
		return pod.SerializeEntries(entries)
	case formatJSON:
		b, err := pod.MarshalJSONEntries(entries)
		return string(b), err
	case formatSimplified:
		return pod.EntriesToSimplifiedJSON(entries)
	default:
		return "", fmt.Errorf("unknown entries format %q", format)
	}
}

func decodePOD(format string, data []byte) (*pod.POD, error) {
	switch format {
	case formatFull:
		return pod.Deserialize(string(data))
	case formatJSON:
		var jp pod.JSONPOD
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&jp); err != nil {
			return nil, err
		}
		return pod.FromJSON(jp)
	default:
		return nil, fmt.Errorf("unknown POD format %q", format)
	}
}

func encodePOD(format string, p *pod.POD) (string, error) {
	switch format {
	case formatFull:
		return p.Serialize()
	case formatJSON:
		jp, err := p.ToJSON()
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(jp); err != nil {
			return "", err
		}
		return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
	default:
		return "", fmt.Errorf("unknown POD format %q", format)
	}
}
