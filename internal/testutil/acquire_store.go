package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cdrandin/SMS-Simple-Web-App/internal/userdb"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStore opens a throwaway user database backed by a temp
// directory. The cleanup function closes the store and removes the
// directory.
func AcquireStore(ctx context.Context, t TestLog) (*userdb.Store, func()) {
	dir, err := os.MkdirTemp("", "smsapp-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := userdb.Open(ctx, filepath.Join(dir, "users.db"))
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
