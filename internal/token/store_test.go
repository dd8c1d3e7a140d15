package token

import (
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-mtl/internal/storage"
)

func TestRegistry_CreateGetHas(t *testing.T) {
	reg := NewRegistry(storage.NewMemory())

	info := &Info{
		TokenID:  "gold",
		Name:     "Gold",
		Symbol:   "GLD",
		Decimals: 6,
		Config:   Config{EnableBurn: true},
	}

	has, err := reg.Has("gold")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if has {
		t.Fatal("expected Has=false before Create")
	}

	if err := reg.Create(info); err != nil {
		t.Fatalf("Create: %v", err)
	}

	has, err = reg.Has("gold")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Fatal("expected Has=true after Create")
	}

	got, err := reg.Get("gold")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got != *info {
		t.Errorf("Get = %+v, want %+v", *got, *info)
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	reg := NewRegistry(storage.NewMemory())

	if err := reg.Create(&Info{TokenID: "art-1", IsUnique: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := reg.Create(&Info{TokenID: "art-1", Name: "other"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("Create duplicate error = %v, want ErrAlreadyExists", err)
	}

	// The original record is untouched.
	got, err := reg.Get("art-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsUnique || got.Name != "" {
		t.Errorf("record was overwritten: %+v", got)
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	reg := NewRegistry(storage.NewMemory())

	_, err := reg.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_Validate(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want error
	}{
		{"empty id", Info{}, ErrInvalidTokenID},
		{"long id", Info{TokenID: strings.Repeat("x", MaxTokenIDLen+1)}, ErrInvalidTokenID},
		{"long name", Info{TokenID: "a", Name: strings.Repeat("n", MaxNameLen+1)}, ErrInvalidMetadata},
		{"long symbol", Info{TokenID: "a", Symbol: strings.Repeat("s", MaxSymbolLen+1)}, ErrInvalidMetadata},
		{"decimals", Info{TokenID: "a", Decimals: MaxDecimals + 1}, ErrInvalidMetadata},
		{"ok", Info{TokenID: "a", Name: "A", Symbol: "A", Decimals: MaxDecimals}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(storage.NewMemory())
			err := reg.Create(&tt.info)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistry_List(t *testing.T) {
	reg := NewRegistry(storage.NewMemory())

	list, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("List on empty registry = %d entries, want 0", len(list))
	}

	for _, id := range []string{"silver", "gold", "bronze"} {
		if err := reg.Create(&Info{TokenID: id}); err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
	}

	list, err = reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"bronze", "gold", "silver"}
	if len(list) != len(want) {
		t.Fatalf("List = %d entries, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].TokenID != id {
			t.Errorf("List[%d] = %q, want %q", i, list[i].TokenID, id)
		}
	}
}

func TestRegistry_ForEachStopsEarly(t *testing.T) {
	reg := NewRegistry(storage.NewMemory())
	for _, id := range []string{"a", "b", "c"} {
		reg.Create(&Info{TokenID: id})
	}

	stop := errors.New("stop")
	count := 0
	err := reg.ForEach(func(*Info) error {
		count++
		return stop
	})
	if err != stop {
		t.Fatalf("ForEach error = %v, want stop", err)
	}
	if count != 1 {
		t.Errorf("ForEach visited %d, want 1", count)
	}
}
