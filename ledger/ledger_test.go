package ledger

import (
	"errors"
	"testing"
)

func TestMintAllocatesSequentialIDs(t *testing.T) {
	l := New()

	first, last, err := l.Mint("alice", 3)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if first != 1 || last != 3 {
		t.Errorf("expected range [1,3], got [%d,%d]", first, last)
	}

	first, last, err = l.Mint("bob", 2)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if first != 4 || last != 5 {
		t.Errorf("expected range [4,5], got [%d,%d]", first, last)
	}

	if l.BalanceOf("alice") != 3 {
		t.Errorf("expected alice balance 3, got %d", l.BalanceOf("alice"))
	}
	if l.TotalMinted() != 5 {
		t.Errorf("expected 5 minted, got %d", l.TotalMinted())
	}
	if err := l.Audit(); err != nil {
		t.Errorf("audit failed: %v", err)
	}
}

func TestMintRejectsInvalidArgs(t *testing.T) {
	l := New()

	if _, _, err := l.Mint(ZeroAddress, 1); !errors.Is(err, ErrZeroAddress) {
		t.Errorf("expected ErrZeroAddress, got %v", err)
	}
	if _, _, err := l.Mint("alice", 0); !errors.Is(err, ErrZeroQuantity) {
		t.Errorf("expected ErrZeroQuantity, got %v", err)
	}
	if l.TotalMinted() != 0 {
		t.Errorf("failed mints must not allocate ids, got %d", l.TotalMinted())
	}
}

func TestTransferByOwner(t *testing.T) {
	l := New()
	l.Mint("alice", 1)

	if err := l.Transfer("alice", "alice", "carol", 1); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	owner, err := l.OwnerOf(1)
	if err != nil {
		t.Fatalf("ownerOf failed: %v", err)
	}
	if owner != "carol" {
		t.Errorf("expected carol to own token 1, got %s", owner)
	}
	if l.BalanceOf("alice") != 0 || l.BalanceOf("carol") != 1 {
		t.Errorf("balances not updated: alice=%d carol=%d",
			l.BalanceOf("alice"), l.BalanceOf("carol"))
	}
	if err := l.Audit(); err != nil {
		t.Errorf("audit failed: %v", err)
	}
}

func TestTransferAuthorization(t *testing.T) {
	l := New()
	l.Mint("alice", 1)

	t.Run("UnknownToken", func(t *testing.T) {
		err := l.Transfer("alice", "alice", "bob", 99)
		if !errors.Is(err, ErrUnknownToken) {
			t.Errorf("expected ErrUnknownToken, got %v", err)
		}
	})

	t.Run("NotOwner", func(t *testing.T) {
		err := l.Transfer("bob", "bob", "carol", 1)
		if !errors.Is(err, ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("NotAuthorized", func(t *testing.T) {
		err := l.Transfer("bob", "alice", "bob", 1)
		if !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized, got %v", err)
		}
	})

	t.Run("ApprovedOperator", func(t *testing.T) {
		if err := l.SetApprovalForAll("alice", "market", true); err != nil {
			t.Fatalf("approval failed: %v", err)
		}
		if !l.IsApprovedForAll("alice", "market") {
			t.Fatal("approval not recorded")
		}
		if err := l.Transfer("market", "alice", "bob", 1); err != nil {
			t.Errorf("operator transfer failed: %v", err)
		}
	})

	t.Run("RevokedOperator", func(t *testing.T) {
		l.SetApprovalForAll("bob", "market", true)
		l.SetApprovalForAll("bob", "market", false)
		err := l.Transfer("market", "bob", "carol", 1)
		if !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized after revoke, got %v", err)
		}
	})
}

func TestFailedTransferLeavesStateUnchanged(t *testing.T) {
	l := New()
	l.Mint("alice", 2)

	if err := l.Transfer("bob", "alice", "bob", 1); err == nil {
		t.Fatal("expected unauthorized transfer to fail")
	}

	owner, _ := l.OwnerOf(1)
	if owner != "alice" {
		t.Errorf("token 1 moved on failed transfer, owner=%s", owner)
	}
	if l.BalanceOf("alice") != 2 || l.BalanceOf("bob") != 0 {
		t.Errorf("balances changed on failed transfer: alice=%d bob=%d",
			l.BalanceOf("alice"), l.BalanceOf("bob"))
	}
	if err := l.Audit(); err != nil {
		t.Errorf("audit failed: %v", err)
	}
}

func TestOwnerOfUnminted(t *testing.T) {
	l := New()
	if _, err := l.OwnerOf(1); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected ErrUnknownToken, got %v", err)
	}
}
