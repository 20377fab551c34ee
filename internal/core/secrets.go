package core

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"filippo.io/age"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/hay-kot/stencil/pkgs/fcrypt"
)

// EncryptedExt is the suffix of age-armored secrets files.
const EncryptedExt = ".age"

type Age struct {
	Recipients   []string `toml:"recipients" yaml:"recipients"`
	IdentityFile string   `toml:"identity-file" yaml:"identity-file"`
}

// ReadIdentity loads the private key from the identity file, skipping comments
// and blank lines.
func (a Age) ReadIdentity() (age.Identity, error) {
	if a.IdentityFile == "" {
		return nil, errors.New("no age identity-file configured")
	}

	path, err := expandHome(a.IdentityFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file %s: %w", a.IdentityFile, err)
	}

	var keyLine string
	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			keyLine = line
			break
		}
	}

	if keyLine == "" {
		return nil, fmt.Errorf("no valid key found in identity file %s", a.IdentityFile)
	}

	return fcrypt.LoadPrivateKey(keyLine)
}

// ReadRecipients parses every configured public key.
func (a Age) ReadRecipients() ([]age.Recipient, error) {
	if len(a.Recipients) == 0 {
		return nil, errors.New("no age recipients configured")
	}

	out := make([]age.Recipient, 0, len(a.Recipients))
	for _, r := range a.Recipients {
		rec, err := fcrypt.LoadPublicKey(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, nil
}

// SecretsPaths returns the plaintext and encrypted paths of a secrets entry.
func (c *ConfigFile) SecretsPaths(setName string) (plain, encrypted string, ok bool) {
	p, ok := c.Secrets[setName]
	if !ok {
		return "", "", false
	}

	p = c.Resolver().Template(p)
	if strings.HasSuffix(p, EncryptedExt) {
		return strings.TrimSuffix(p, EncryptedExt), p, true
	}
	return p, p + EncryptedExt, true
}

// ResolveSet returns the named set with entries from its secrets file merged
// in. Inline entries win over secrets with the same key. A missing secrets
// file is logged and skipped.
func (c *ConfigFile) ResolveSet(l zerolog.Logger, name string) (ReplacementSet, error) {
	set, err := c.Set(name)
	if err != nil {
		return set, err
	}

	plain, encrypted, ok := c.SecretsPaths(name)
	if !ok {
		return set, nil
	}

	var (
		data   []byte
		source string
	)
	switch {
	case fileExists(encrypted):
		identity, err := c.Age.ReadIdentity()
		if err != nil {
			return set, &Error{Kind: KindConfigLoad, Path: encrypted, Set: name, Err: err}
		}

		f, err := os.Open(encrypted)
		if err != nil {
			return set, &Error{Kind: KindConfigLoad, Path: encrypted, Set: name, Err: err}
		}
		defer func() { _ = f.Close() }()

		var buf bytes.Buffer
		if err := fcrypt.DecryptReader(f, &buf, identity); err != nil {
			return set, &Error{Kind: KindConfigLoad, Path: encrypted, Set: name, Err: err}
		}
		data, source = buf.Bytes(), encrypted
	case fileExists(plain):
		l.Debug().Str("path", plain).Str("set", name).Msg("secrets file is not encrypted")
		data, err = os.ReadFile(plain)
		if err != nil {
			return set, &Error{Kind: KindConfigLoad, Path: plain, Set: name, Err: err}
		}
		source = plain
	default:
		l.Warn().Str("path", encrypted).Str("set", name).Msg("secrets file does not exist, skipping")
		return set, nil
	}

	secrets := map[string]string{}
	if err := toml.Unmarshal(data, &secrets); err != nil {
		return set, &Error{Kind: KindConfigParse, Path: source, Set: name, Err: err}
	}

	merged := make(map[string]string, len(secrets)+len(set.Entries))
	maps.Copy(merged, secrets)
	maps.Copy(merged, set.Entries)

	var secretKeys []string
	for k := range secrets {
		if _, inline := set.Entries[k]; inline {
			l.Debug().Str("set", name).Str("key", k).Msg("inline entry shadows secret")
			continue
		}
		secretKeys = append(secretKeys, k)
	}
	slices.Sort(secretKeys)

	set.Entries = merged
	set.SecretKeys = secretKeys

	return set, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
