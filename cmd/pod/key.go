package main

import (
	"crypto/rand"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"xdao.co/pod/keys"
)

func (t *tool) keyCmd() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "minimal local key management",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create a root signing key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "key name (directory under the key store)", Required: true},
					&cli.StringFlag{Name: "private-key", Usage: "optional private key as 64 hex chars or Base64 (for reproducible demos)"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite existing key files"},
				},
				Action: t.keyInit,
			},
			{
				Name:  "derive",
				Usage: "derive a role key from a root key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "root key name", Required: true},
					&cli.StringFlag{Name: "role", Usage: "role identifier (e.g. voter, organizer)", Required: true},
					&cli.BoolFlag{Name: "force", Usage: "overwrite existing key files"},
				},
				Action: t.keyDerive,
			},
			{
				Name:   "list",
				Usage:  "list stored keys and their roles",
				Action: t.keyList,
			},
			{
				Name:  "export",
				Usage: "print the signer public key of a stored key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "key name", Required: true},
					&cli.StringFlag{Name: "role", Usage: "optional role (if set, exports the derived role key)"},
				},
				Action: t.keyExport,
			},
		},
	}
}

func keyStore(c *cli.Context) (*keys.KeyStore, error) {
	ks, err := keys.CreateKeyStore(c.String(keyDirFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	return ks, nil
}

func (t *tool) keyInit(c *cli.Context) error {
	name := c.String("name")
	if err := keys.CheckKeyName(name); err != nil {
		return fmt.Errorf("invalid --name: %w", err)
	}
	ks, err := keyStore(c)
	if err != nil {
		return err
	}

	var key []byte
	if s := c.String("private-key"); s != "" {
		key, err = keys.ParsePrivateKey(s)
		if err != nil {
			return fmt.Errorf("invalid --private-key: %w", err)
		}
	} else {
		key, err = keys.GeneratePrivateKey(rand.Reader)
		if err != nil {
			return err
		}
	}

	publicKey, rootPath, err := ks.InitializeRootKey(name, key, c.Bool("force"))
	if err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	t.log.Debug("created root key", zap.String("name", name), zap.String("path", rootPath))
	fmt.Fprintf(c.App.Writer, "Created root key: %s\n", publicKey)
	fmt.Fprintf(c.App.Writer, "Stored at: %s\n", rootPath)
	return nil
}

func (t *tool) keyDerive(c *cli.Context) error {
	from, role := c.String("from"), c.String("role")
	if err := keys.CheckKeyName(from); err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	if err := keys.CheckRole(role); err != nil {
		return fmt.Errorf("invalid --role: %w", err)
	}
	ks, err := keyStore(c)
	if err != nil {
		return err
	}
	publicKey, rolePath, err := ks.DeriveKeyFromRole(from, role, c.Bool("force"))
	if err != nil {
		return fmt.Errorf("derive role key: %w", err)
	}
	t.log.Debug("derived role key", zap.String("from", from), zap.String("role", role))
	fmt.Fprintf(c.App.Writer, "Created role key: %s\n", publicKey)
	fmt.Fprintf(c.App.Writer, "Stored at: %s\n", rolePath)
	return nil
}

func (t *tool) keyList(c *cli.Context) error {
	ks, err := keyStore(c)
	if err != nil {
		return err
	}
	entries, err := ks.ListKeys()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, e := range entries {
		fmt.Fprintf(c.App.Writer, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(c.App.Writer, "  - %s\n", r)
		}
	}
	return nil
}

func (t *tool) keyExport(c *cli.Context) error {
	name, role := c.String("name"), c.String("role")
	if err := keys.CheckKeyName(name); err != nil {
		return fmt.Errorf("invalid --name: %w", err)
	}
	ks, err := keyStore(c)
	if err != nil {
		return err
	}
	publicKey, err := ks.ExportPublicKey(name, role)
	if err != nil {
		return fmt.Errorf("export key: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, publicKey)
	return err
}
