package descriptor

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// writeFile creates a file with dummy content inside dir.
func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func validDescriptor(t *testing.T) *Descriptor {
	t.Helper()
	dir := t.TempDir()

	d := New()
	d.SetEntryPoint(writeFile(t, dir, "app.py"))
	d.AddData(writeFile(t, dir, "icon.ico"), ".")
	d.AddHiddenImport("pkg.a")
	d.AddHiddenImport("pkg.b")
	d.OutputName = "app"
	d.CollectionName = "app-dist"
	return d
}

func TestRoundTrip(t *testing.T) {
	d := validDescriptor(t)
	d.Flags.CompressWithUPX = true
	d.Flags.SingleArchiveMode = true

	data, err := d.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(d, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, d)
	}

	// A second cycle must also be the identity.
	data2, err := got.Marshal()
	if err != nil {
		t.Fatalf("second marshal: %v", err)
	}
	if string(data) != string(data2) {
		t.Errorf("serialized forms differ:\n%s\n---\n%s", data, data2)
	}
}

func TestUnmarshalOmittedFlagsKeepDefaults(t *testing.T) {
	// A descriptor without a packaging_flags object must behave exactly
	// like a freshly built one: one-dir layout, console visible.
	got, err := Unmarshal([]byte(`{"entry_script": "app.py", "output_name": "app", "collection_name": "app-dist"}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Flags != DefaultFlags() {
		t.Errorf("Flags = %+v, want %+v", got.Flags, DefaultFlags())
	}
}

func TestAddHiddenImportIdempotent(t *testing.T) {
	d := New()
	d.AddHiddenImport("pkg.b")
	d.AddHiddenImport("pkg.a")
	d.AddHiddenImport("pkg.b")
	d.AddHiddenImport("pkg.a")

	want := []string{"pkg.a", "pkg.b"}
	if !reflect.DeepEqual(d.HiddenImports, want) {
		t.Errorf("HiddenImports = %v, want %v", d.HiddenImports, want)
	}
}

func TestValidateDestinationCollision(t *testing.T) {
	dir := t.TempDir()
	d := validDescriptor(t)

	// Two different sources, same resolved destination.
	d.AddData(writeFile(t, dir, "a/readme.txt"), "docs")
	d.AddData(writeFile(t, dir, "b/readme.txt"), "docs")

	err := d.Validate()
	if !errors.Is(err, ferrors.ErrDestinationCollision) {
		t.Errorf("Validate() = %v, want ErrDestinationCollision", err)
	}
}

func TestValidateDuplicateEntryAllowed(t *testing.T) {
	dir := t.TempDir()
	d := validDescriptor(t)

	src := writeFile(t, dir, "notes.txt")
	d.AddData(src, "docs")
	d.AddData(src, "docs")

	if err := d.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for duplicate identical entry", err)
	}
}

func TestValidateMissingEntryScript(t *testing.T) {
	d := validDescriptor(t)
	d.SetEntryPoint(filepath.Join(t.TempDir(), "missing.py"))

	err := d.Validate()
	if !errors.Is(err, ferrors.ErrUnresolvedEntryScript) {
		t.Errorf("Validate() = %v, want ErrUnresolvedEntryScript", err)
	}
}

func TestValidateMissingDataSource(t *testing.T) {
	d := validDescriptor(t)
	d.AddData(filepath.Join(t.TempDir(), "gone.dat"), ".")

	err := d.Validate()
	if !errors.Is(err, ferrors.ErrMissingSourcePath) {
		t.Errorf("Validate() = %v, want ErrMissingSourcePath", err)
	}
}

func TestValidateEscapingDestination(t *testing.T) {
	dir := t.TempDir()
	d := validDescriptor(t)
	d.AddData(writeFile(t, dir, "leak.txt"), "../outside")

	err := d.Validate()
	if !errors.Is(err, ferrors.ErrInvalidDestination) {
		t.Errorf("Validate() = %v, want ErrInvalidDestination", err)
	}
}

func TestValidateHiddenAndExcluded(t *testing.T) {
	d := validDescriptor(t)
	d.ExcludeModule("pkg.a")

	err := d.Validate()
	if !errors.Is(err, ferrors.ErrInconsistentExclusion) {
		t.Errorf("Validate() = %v, want ErrInconsistentExclusion", err)
	}
}

func TestValidateOK(t *testing.T) {
	d := validDescriptor(t)
	if err := d.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
