package scryptn

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/kestrellsystems/VeriMiner/driver"
	"github.com/kestrellsystems/VeriMiner/mining"
)

func TestRegenHash(t *testing.T) {
	mf := &MiningFuncs{Cost: 1024}
	hash := mf.RegenHash(withNonce(t, 1))
	expectedHash := "e5cc00210706ef7c5a362ada5c981774c8a926d388323981a6acc17cd64e4b88"
	if hex.EncodeToString(hash) != expectedHash {
		t.Fatal("Wrong Hash.")
	}
	if !bytes.Equal(mf.RegenHash(make([]byte, 12)), bytes.Repeat([]byte{0xff}, HashSize)) {
		t.Fatal("short input should regenerate an unbeatable hash")
	}
}

func TestDiffChecker(t *testing.T) {
	mf := &MiningFuncs{Cost: 1024}
	hash, _ := hex.DecodeString("e5cc00210706ef7c5a362ada5c981774c8a926d388323981a6acc17cd64e4b88")

	easy := make([]byte, HashSize)
	easy[31] = 0x89
	hard := make([]byte, HashSize)
	hard[31] = 0x88

	header := withNonce(t, 1)[:mining.HeaderPrefixSize]
	if !mf.DiffChecker(hash, driver.MiningWork{Job: mining.NewJob("a", header, easy)}) {
		t.Error("hash with top byte 0x88 should beat 0x89..")
	}
	if mf.DiffChecker(hash, driver.MiningWork{Job: mining.NewJob("b", header, hard)}) {
		t.Error("hash with top byte 0x88 should not beat 0x88 00..")
	}
	if mf.DiffChecker(hash[:31], driver.MiningWork{Job: mining.NewJob("c", header, easy)}) {
		t.Error("truncated hash accepted")
	}
}

func TestNewHasherUsesCost(t *testing.T) {
	h := (&MiningFuncs{Cost: 64}).NewHasher().(*Hasher)
	if h.Cost() != 64 {
		t.Fatalf("cost %d", h.Cost())
	}
}
