// Package fcrypt wraps age with ASCII armor for encrypting small text files
// such as secrets tables.
package fcrypt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"filippo.io/age/armor"
)

func LoadPublicKey(key string) (*age.X25519Recipient, error) {
	r, err := age.ParseX25519Recipient(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age public key='%s': %w", key, err)
	}

	return r, nil
}

func LoadPrivateKey(key string) (*age.X25519Identity, error) {
	id, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age private key: %w", err)
	}

	return id, nil
}

// EncryptReader encrypts r to every recipient and writes armored output to w.
func EncryptReader(r io.Reader, w io.Writer, recipients ...age.Recipient) error {
	if len(recipients) == 0 {
		return errors.New("no recipients to encrypt for")
	}

	aw := armor.NewWriter(w)

	enc, err := age.Encrypt(aw, recipients...)
	if err != nil {
		_ = aw.Close()
		return fmt.Errorf("failed to create encryptor: %w", err)
	}

	if _, err := io.Copy(enc, r); err != nil {
		_ = enc.Close()
		_ = aw.Close()
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	// age must be finalized before the armor footer is written
	if err := enc.Close(); err != nil {
		_ = aw.Close()
		return fmt.Errorf("failed to finalize encryption: %w", err)
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("failed to finalize armor: %w", err)
	}

	return nil
}

// DecryptReader decrypts armored input from r and writes plaintext to w.
func DecryptReader(r io.Reader, w io.Writer, identity age.Identity) error {
	dec, err := age.Decrypt(armor.NewReader(r), identity)
	if err != nil {
		return fmt.Errorf("failed to create decryptor: %w", err)
	}

	if _, err := io.Copy(w, dec); err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	return nil
}

// EncryptFile writes an encrypted copy of src to dst and removes src once the
// copy is complete.
func EncryptFile(src, dst string, recipients ...age.Recipient) error {
	err := transform(src, dst, func(r io.Reader, w io.Writer) error {
		return EncryptReader(r, w, recipients...)
	})
	if err != nil {
		return err
	}

	return os.Remove(src)
}

// DecryptFile writes the plaintext of src to dst and removes src once the
// plaintext is complete.
func DecryptFile(src, dst string, identity age.Identity) error {
	err := transform(src, dst, func(r io.Reader, w io.Writer) error {
		return DecryptReader(r, w, identity)
	})
	if err != nil {
		return err
	}

	return os.Remove(src)
}

func transform(src, dst string, fn func(io.Reader, io.Writer) error) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := fn(in, out); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}

	return out.Close()
}
