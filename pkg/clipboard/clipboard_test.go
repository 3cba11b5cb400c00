package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeProvider is an in-memory clipboard that records every call.
type FakeProvider struct {
	Content   string
	ReadErr   error
	WriteErr  error
	Reads     int
	Writes    []string
	WriteFunc func(text string) error
}

func (f *FakeProvider) Read() (string, error) {
	f.Reads++
	if f.ReadErr != nil {
		return "", f.ReadErr
	}
	return f.Content, nil
}

func (f *FakeProvider) Write(text string) error {
	f.Writes = append(f.Writes, text)
	if f.WriteFunc != nil {
		if err := f.WriteFunc(text); err != nil {
			return err
		}
	} else if f.WriteErr != nil {
		return f.WriteErr
	}
	f.Content = text
	return nil
}

func TestSwap_RestoresSnapshot(t *testing.T) {
	for _, prior := range []string{"", "operator notes", "multi\nline\n", "ünïcode ✓"} {
		fake := &FakeProvider{Content: prior}

		restore, err := Swap(fake, "build output")
		require.NoError(t, err)
		assert.Equal(t, "build output", fake.Content)

		require.NoError(t, restore())
		assert.Equal(t, prior, fake.Content)
		assert.Equal(t, []string{"build output", prior}, fake.Writes)
	}
}

func TestSwap_RestoreRunsOnce(t *testing.T) {
	fake := &FakeProvider{Content: "mine"}
	restore, err := Swap(fake, "theirs")
	require.NoError(t, err)

	require.NoError(t, restore())
	fake.Content = "changed later by the operator"
	require.NoError(t, restore())

	assert.Equal(t, "changed later by the operator", fake.Content)
	assert.Len(t, fake.Writes, 2)
}

func TestSwap_ReadFailureLeavesClipboardAlone(t *testing.T) {
	fake := &FakeProvider{Content: "mine", ReadErr: errors.New("no xclip")}

	restore, err := Swap(fake, "theirs")
	require.Error(t, err)
	assert.Nil(t, restore)
	assert.Empty(t, fake.Writes)
	assert.Equal(t, "mine", fake.Content)
}

func TestSwap_WriteFailureRestores(t *testing.T) {
	fake := &FakeProvider{Content: "mine"}
	fake.WriteFunc = func(text string) error {
		if text == "theirs" {
			return errors.New("clipboard busy")
		}
		return nil
	}

	restore, err := Swap(fake, "theirs")
	require.Error(t, err)
	assert.Nil(t, restore)
	assert.Equal(t, []string{"theirs", "mine"}, fake.Writes)
	assert.Equal(t, "mine", fake.Content)
}

func TestSwap_RestoreErrorIsSticky(t *testing.T) {
	fake := &FakeProvider{Content: "mine"}
	restore, err := Swap(fake, "theirs")
	require.NoError(t, err)

	fake.WriteErr = errors.New("gone")
	first := restore()
	require.Error(t, first)
	assert.Equal(t, first, restore())
}

func TestSwap_EmptyClipboardRestoresEmpty(t *testing.T) {
	fake := &FakeProvider{ReadErr: fmt.Errorf("%w: exit status 1", ErrEmpty)}

	restore, err := Swap(fake, "build output")
	require.NoError(t, err)
	assert.Equal(t, "build output", fake.Content)

	require.NoError(t, restore())
	assert.Equal(t, "", fake.Content)
	assert.Equal(t, []string{"build output", ""}, fake.Writes)
}

func TestSnapshot_DoesNotWrite(t *testing.T) {
	fake := &FakeProvider{Content: "mine"}

	restore, err := Snapshot(fake)
	require.NoError(t, err)
	assert.Empty(t, fake.Writes)

	require.NoError(t, Replace(fake, restore, "theirs"))
	assert.Equal(t, "theirs", fake.Content)
	require.NoError(t, restore())
	assert.Equal(t, "mine", fake.Content)
}

func TestSystemRead_EmptySelection(t *testing.T) {
	orig := readAll
	t.Cleanup(func() { readAll = orig })

	t.Run("errno zero", func(t *testing.T) {
		readAll = func() (string, error) { return "", syscall.Errno(0) }
		text, err := System{}.Read()
		assert.ErrorIs(t, err, ErrEmpty)
		assert.Empty(t, text)
	})

	t.Run("tool exit status", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("needs sh")
		}
		exitErr := exec.Command("sh", "-c", "exit 1").Run()
		require.Error(t, exitErr)
		readAll = func() (string, error) { return "", exitErr }
		_, err := System{}.Read()
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("other failures pass through", func(t *testing.T) {
		boom := errors.New("no clipboard utilities available")
		readAll = func() (string, error) { return "", boom }
		_, err := System{}.Read()
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrEmpty)
	})

	t.Run("text", func(t *testing.T) {
		readAll = func() (string, error) { return "notes", nil }
		text, err := System{}.Read()
		require.NoError(t, err)
		assert.Equal(t, "notes", text)
	})
}
