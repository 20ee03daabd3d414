package main

import (
	"bytes"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/cpmm-router/internal/adapters/snapshot"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[0] = b
	k[31] = b
	return k
}

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pools.json")
	pools := []*domain.Pool{
		{Address: testKey(101), TokenMintA: testKey(1), TokenMintB: testKey(2), TokenDecimalsA: 6, TokenDecimalsB: 6, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(2_000_000)},
		{Address: testKey(102), TokenMintA: testKey(2), TokenMintB: testKey(3), TokenDecimalsA: 6, TokenDecimalsB: 6, ReserveA: big.NewInt(2_000_000), ReserveB: big.NewInt(500_000)},
	}
	if err := snapshot.Write(path, pools); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	path := writeSnapshot(t)

	out, err := runRoot(t, "quote",
		"--pools", path,
		"--in", testKey(1).String(),
		"--out", testKey(3).String(),
		"--amount", "10000",
	)
	if err != nil {
		t.Fatalf("quote failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"amount out  4901 (0.004901)",
		"min out     4876 (0.004876) (50 bps)",
		"hop 1  pool " + testKey(101).String(),
		"hop 2  pool " + testKey(102).String(),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestQuoteCommandExactOut(t *testing.T) {
	path := writeSnapshot(t)

	out, err := runRoot(t, "quote",
		"--pools", path,
		"--in", testKey(1).String(),
		"--out", testKey(2).String(),
		"--amount", "10000",
		"--mode", "ExactOut",
		"--slippage-bps", "100",
	)
	if err != nil {
		t.Fatalf("quote failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "max in") || !strings.Contains(out, "(100 bps)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestQuoteCommandErrors(t *testing.T) {
	path := writeSnapshot(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing pools", []string{"quote", "--in", testKey(1).String(), "--out", testKey(3).String(), "--amount", "1"}},
		{"bad mint", []string{"quote", "--pools", path, "--in", "nope", "--out", testKey(3).String(), "--amount", "1"}},
		{"bad amount", []string{"quote", "--pools", path, "--in", testKey(1).String(), "--out", testKey(3).String(), "--amount", "ten"}},
		{"bad mode", []string{"quote", "--pools", path, "--in", testKey(1).String(), "--out", testKey(3).String(), "--amount", "1", "--mode", "Both"}},
		{"no route", []string{"quote", "--pools", path, "--in", testKey(1).String(), "--out", testKey(9).String(), "--amount", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runRoot(t, tt.args...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
