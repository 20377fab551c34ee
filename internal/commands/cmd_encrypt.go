package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/stencil/internal/core"
	"github.com/hay-kot/stencil/pkgs/fcrypt"
)

type EncryptCmd struct {
	globals *Globals
}

func NewEncryptCmd(globals *Globals) *EncryptCmd {
	return &EncryptCmd{globals: globals}
}

func (ec *EncryptCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "encrypt all secrets files in-place",
			Description: `Encrypts every file listed under [secrets] with the configured age recipients.

The plaintext <file> is replaced by an armored <file>.age. Files that are
already encrypted or do not exist are skipped.`,
			Action: ec.encrypt,
		},
		{
			Name:  "decrypt",
			Usage: "decrypt all secrets files in-place",
			Description: `Decrypts every <file>.age listed under [secrets] with the configured age
identity, leaving the plaintext <file> for editing. Run 'stencil encrypt'
before committing the config root again.`,
			Action: ec.decrypt,
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

func (ec *EncryptCmd) encrypt(ctx context.Context, cmd *cli.Command) error {
	l := ec.globals.Logger

	cfg, err := ec.globals.loadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Secrets) == 0 {
		l.Info().Msg("no secrets files configured")
		return nil
	}

	recipients, err := cfg.Age.ReadRecipients()
	if err != nil {
		return err
	}

	count := 0
	for _, name := range secretSets(cfg) {
		plain, sealed, _ := cfg.SecretsPaths(name)

		if _, err := os.Stat(plain); os.IsNotExist(err) {
			l.Debug().Str("file", plain).Msg("plaintext file doesn't exist, skipping")
			continue
		}

		if _, err := os.Stat(sealed); err == nil {
			l.Warn().Str("file", sealed).Msg("encrypted file already exists, skipping")
			continue
		}

		l.Info().Str("source", plain).Str("target", sealed).Msg("encrypting file")
		if err := fcrypt.EncryptFile(plain, sealed, recipients...); err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", plain, err)
		}
		count++
	}

	l.Info().Int("count", count).Msg("encryption complete")
	return nil
}

func (ec *EncryptCmd) decrypt(ctx context.Context, cmd *cli.Command) error {
	l := ec.globals.Logger

	cfg, err := ec.globals.loadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Secrets) == 0 {
		l.Info().Msg("no secrets files configured")
		return nil
	}

	identity, err := cfg.Age.ReadIdentity()
	if err != nil {
		return err
	}

	count := 0
	for _, name := range secretSets(cfg) {
		plain, sealed, _ := cfg.SecretsPaths(name)

		if _, err := os.Stat(sealed); os.IsNotExist(err) {
			l.Debug().Str("file", sealed).Msg("encrypted file doesn't exist, skipping")
			continue
		}

		if _, err := os.Stat(plain); err == nil {
			l.Warn().Str("file", plain).Msg("decrypted file already exists, skipping")
			continue
		}

		l.Info().Str("source", sealed).Str("target", plain).Msg("decrypting file")
		if err := fcrypt.DecryptFile(sealed, plain, identity); err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", sealed, err)
		}
		count++
	}

	l.Info().Int("count", count).Msg("decryption complete")
	return nil
}

// secretSets returns the sets that have a secrets file, sorted.
func secretSets(cfg *core.ConfigFile) []string {
	var names []string
	for _, name := range cfg.SetNames() {
		if _, ok := cfg.Secrets[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
