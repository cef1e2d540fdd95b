package wallet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/cosmos/go-bip39"
	"github.com/rs/zerolog/log"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

var (
	ErrInvalidName     = errors.New("invalid wallet name")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// Keyring creates and inspects keys through the node binary's `keys` commands.
type Keyring struct {
	r       runner.Runner
	binary  string
	home    string
	backend string
	prefix  string
}

func NewKeyring(r runner.Runner, binary, home, backend, prefix string) *Keyring {
	return &Keyring{r: r, binary: binary, home: home, backend: backend, prefix: prefix}
}

// ValidateName rejects empty names and names containing whitespace.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains spaces", ErrInvalidName, name)
	}
	return nil
}

// ValidateMnemonic checks the BIP-39 word list and checksum.
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// ValidateAddress checks that addr is bech32 with the expected prefix.
func ValidateAddress(addr, prefix string) error {
	hrp, _, err := bech32.DecodeAndConvert(addr)
	if err != nil {
		return fmt.Errorf("decode address %q: %w", addr, err)
	}
	if prefix != "" && hrp != prefix {
		return fmt.Errorf("address %q has prefix %q, want %q", addr, hrp, prefix)
	}
	return nil
}

// Prompter reads answers line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Name asks for a wallet name until a valid one is entered.
func (p *Prompter) Name() (string, error) {
	for {
		name, err := p.ask("Enter a wallet name (no spaces): ")
		if err != nil {
			return "", fmt.Errorf("read wallet name: %w", err)
		}
		if err := ValidateName(name); err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		return name, nil
	}
}

// Mnemonic asks for a BIP-39 mnemonic until a valid one is entered.
func (p *Prompter) Mnemonic() (string, error) {
	for {
		m, err := p.ask("Enter your bip39 mnemonic: ")
		if err != nil {
			return "", fmt.Errorf("read mnemonic: %w", err)
		}
		m = strings.Join(strings.Fields(m), " ")
		if err := ValidateMnemonic(m); err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		return m, nil
	}
}

func (k *Keyring) keys(args ...string) runner.Cmd {
	args = append(append([]string{"keys"}, args...), "--home", k.home, "--keyring-backend", k.backend)
	return runner.Command(k.binary, args...)
}

// Create adds a new key. The node binary prints the mnemonic to the terminal.
func (k *Keyring) Create(ctx context.Context, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	log.Info().Msgf("Creating wallet: %s", name)
	if err := k.r.Run(ctx, k.keys("add", name)); err != nil {
		return "", fmt.Errorf("create wallet: %w", err)
	}
	return k.Address(ctx, name)
}

// Recover imports a key from mnemonic, which is passed on stdin.
func (k *Keyring) Recover(ctx context.Context, name, mnemonic string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := ValidateMnemonic(mnemonic); err != nil {
		return "", err
	}

	log.Info().Msgf("Recovering wallet: %s", name)
	c := k.keys("add", name, "--recover")
	c.Stdin = strings.NewReader(mnemonic + "\n")
	if err := k.r.Run(ctx, c); err != nil {
		return "", fmt.Errorf("recover wallet: %w", err)
	}
	return k.Address(ctx, name)
}

// Address returns the bech32 address of the named key.
func (k *Keyring) Address(ctx context.Context, name string) (string, error) {
	b, err := k.r.Output(ctx, k.keys("show", name, "-a"))
	if err != nil {
		return "", fmt.Errorf("show wallet address: %w", err)
	}

	addr := strings.TrimSpace(string(b))
	if err := ValidateAddress(addr, k.prefix); err != nil {
		return "", err
	}
	return addr, nil
}
