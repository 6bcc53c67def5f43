package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertIdentity(t *testing.T) {
	got, err := Convert(42.5, "ml", "ml")
	require.NoError(t, err)
	require.Equal(t, 42.5, got)

	// Aliases of the same unit are still identity.
	got, err = Convert(3, "Litre", "l")
	require.NoError(t, err)
	require.Equal(t, 3.0, got)
}

func TestConvertVolume(t *testing.T) {
	got, err := Convert(4000, "ml", "l")
	require.NoError(t, err)
	require.InDelta(t, 4.0, got, 1e-9)

	got, err = Convert(1, "gal", "l")
	require.NoError(t, err)
	require.InDelta(t, 3.785411784, got, 1e-9)
}

func TestConvertWeight(t *testing.T) {
	got, err := Convert(1, "lb", "oz")
	require.NoError(t, err)
	require.InDelta(t, 16.0, got, 1e-9)

	got, err = Convert(2500, "g", "kg")
	require.NoError(t, err)
	require.InDelta(t, 2.5, got, 1e-9)
}

func TestConvertCount(t *testing.T) {
	got, err := Convert(2, "box", "pcs")
	require.NoError(t, err)
	require.InDelta(t, 48.0, got, 1e-9)

	got, err = Convert(36, "pcs", "dozen")
	require.NoError(t, err)
	require.InDelta(t, 3.0, got, 1e-9)
}

func TestConvertRoundTrip(t *testing.T) {
	// A->B->A must return the original value for every in-class pair.
	for class, table := range factors {
		for from := range table {
			for to := range table {
				converted, err := Convert(123.456, from, to)
				require.NoError(t, err, "%s: %s->%s", class, from, to)
				back, err := Convert(converted, to, from)
				require.NoError(t, err, "%s: %s->%s", class, to, from)
				require.InEpsilon(t, 123.456, back, 1e-6, "%s: %s->%s->%s", class, from, to, from)
			}
		}
	}
}

func TestConvertCrossClass(t *testing.T) {
	_, err := Convert(10, "ml", "kg")
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Convert(10, "pcs", "m")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestConvertUnknownUnit(t *testing.T) {
	_, err := Convert(10, "blob", "ml")
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Convert(10, "ml", "blob")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestNormalizeAliases(t *testing.T) {
	require.Equal(t, "l", Normalize(" Litres "))
	require.Equal(t, "ft2", Normalize("sq ft"))
	require.Equal(t, "pcs", Normalize("EACH"))
	// Unknown spellings come back trimmed and lowercased.
	require.Equal(t, "drum", Normalize(" Drum"))
}

func TestSupported(t *testing.T) {
	require.True(t, Supported("ml", "gal"))
	require.False(t, Supported("ml", "g"))
	require.False(t, Supported("drum", "l"))
}
