package envelope

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cheap parameters keep the KDFs fast under test.
var testArgon2 = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1}

func testSchemes(t *testing.T) []Scheme {
	t.Helper()
	a, err := NewAgeScheme(MinScryptWorkFactor)
	require.NoError(t, err)
	b, err := NewArgon2Scheme(testArgon2)
	require.NoError(t, err)
	return []Scheme{a, b}
}

func eachScheme(t *testing.T, fn func(t *testing.T, s Scheme)) {
	for _, s := range testSchemes(t) {
		t.Run(s.Name(), func(t *testing.T) { fn(t, s) })
	}
}

// --- Seal / Open ---

func TestSealOpen_RoundTrip(t *testing.T) {
	eachScheme(t, func(t *testing.T, s Scheme) {
		tests := []struct {
			name      string
			plaintext []byte
		}{
			{"ascii", []byte("hello chat")},
			{"unicode", []byte("héllo wörld ✓ 日本")},
			{"empty", []byte{}},
			{"binary", []byte{0x00, 0xFF, 0x10, 0x80}},
			{"large", bytes.Repeat([]byte("x"), 100_000)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env, err := s.Seal(tt.plaintext, "pwSALT")
				require.NoError(t, err)
				assert.True(t, s.Detect(env))

				got, err := s.Open(env, "pwSALT")
				require.NoError(t, err)
				assert.Equal(t, len(tt.plaintext), len(got))
				assert.True(t, bytes.Equal(tt.plaintext, got))
			})
		}
	})
}

func TestSeal_Randomized(t *testing.T) {
	eachScheme(t, func(t *testing.T, s Scheme) {
		e1, err := s.Seal([]byte("same"), "pass")
		require.NoError(t, err)
		e2, err := s.Seal([]byte("same"), "pass")
		require.NoError(t, err)
		assert.NotEqual(t, e1, e2)
	})
}

func TestOpen_WrongPassphrase(t *testing.T) {
	eachScheme(t, func(t *testing.T, s Scheme) {
		env, err := s.Seal([]byte("secret"), "correct")
		require.NoError(t, err)

		got, err := s.Open(env, "incorrect")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
		assert.Nil(t, got)
	})
}

func TestSealOpen_EmptyPassphrase(t *testing.T) {
	eachScheme(t, func(t *testing.T, s Scheme) {
		_, err := s.Seal([]byte("x"), "")
		assert.ErrorIs(t, err, ErrEmptyPassphrase)

		_, err = s.Open([]byte("x"), "")
		assert.ErrorIs(t, err, ErrEmptyPassphrase)
	})
}

func TestOpen_ForeignData(t *testing.T) {
	eachScheme(t, func(t *testing.T, s Scheme) {
		_, err := s.Open([]byte("definitely not an envelope"), "pw")
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	eachScheme(t, func(t *testing.T, s Scheme) {
		env, err := s.Seal([]byte("integrity matters"), "pw")
		require.NoError(t, err)

		env[len(env)-1] ^= 0x01
		got, err := s.Open(env, "pw")
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, ErrDecryptionFailed) || errors.Is(err, ErrInvalidEnvelope), "got %v", err)
	})
}

// --- age specifics ---

func TestNewAgeScheme_WorkFactor(t *testing.T) {
	s, err := NewAgeScheme(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultScryptWorkFactor, s.WorkFactor())

	_, err = NewAgeScheme(MinScryptWorkFactor - 1)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewAgeScheme(MaxScryptWorkFactor + 1)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestAgeScheme_HeaderIsStandard(t *testing.T) {
	s, err := NewAgeScheme(MinScryptWorkFactor)
	require.NoError(t, err)

	env, err := s.Seal([]byte("x"), "pw")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(env, []byte("age-encryption.org/v1\n-> scrypt ")))
}

func TestAgeScheme_MalformedHeader(t *testing.T) {
	s, err := NewAgeScheme(MinScryptWorkFactor)
	require.NoError(t, err)

	_, err = s.Open([]byte("age-encryption.org/v1\ngarbage"), "pw")
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

// --- argon2id specifics ---

func TestNewArgon2Scheme_Defaults(t *testing.T) {
	s, err := NewArgon2Scheme(Argon2Params{})
	require.NoError(t, err)
	assert.Equal(t, DefaultArgon2Params, s.Params())
}

func TestNewArgon2Scheme_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Argon2Params
	}{
		{"zero time", Argon2Params{Time: 0, Memory: 8192, Threads: 1}},
		{"huge time", Argon2Params{Time: 100, Memory: 8192, Threads: 1}},
		{"tiny memory", Argon2Params{Time: 1, Memory: 4, Threads: 1}},
		{"huge memory", Argon2Params{Time: 1, Memory: 1 << 30, Threads: 1}},
		{"zero threads", Argon2Params{Time: 1, Memory: 8192, Threads: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArgon2Scheme(tt.params)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestArgon2Scheme_Layout(t *testing.T) {
	s, err := NewArgon2Scheme(testArgon2)
	require.NoError(t, err)

	env, err := s.Seal([]byte("abc"), "pw")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(env, []byte("WCENV1\x01")))
	assert.Len(t, env, argon2HeaderLen+3+16)
}

func TestArgon2Scheme_Truncated(t *testing.T) {
	s, err := NewArgon2Scheme(testArgon2)
	require.NoError(t, err)

	env, err := s.Seal([]byte("abc"), "pw")
	require.NoError(t, err)

	_, err = s.Open(env[:argon2HeaderLen], "pw")
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestArgon2Scheme_TamperedParams(t *testing.T) {
	s, err := NewArgon2Scheme(testArgon2)
	require.NoError(t, err)

	env, err := s.Seal([]byte("abc"), "pw")
	require.NoError(t, err)

	// Bump the time cost from 1 to 2: still in range, but bound into the AEAD.
	env[len(argon2Magic)+1+3] = 2
	_, err = s.Open(env, "pw")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestArgon2Scheme_HostileParams(t *testing.T) {
	s, err := NewArgon2Scheme(testArgon2)
	require.NoError(t, err)

	env, err := s.Seal([]byte("abc"), "pw")
	require.NoError(t, err)

	// Memory field set to 0xFFFFFFFF KiB must be refused before derivation.
	off := len(argon2Magic) + 1 + 4
	copy(env[off:off+4], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	_, err = s.Open(env, "pw")
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

// --- Codec ---

func TestNew(t *testing.T) {
	s, err := New(SchemeAge, Options{ScryptWorkFactor: MinScryptWorkFactor})
	require.NoError(t, err)
	assert.Equal(t, SchemeAge, s.Name())

	s, err = New(SchemeArgon2id, Options{Argon2: testArgon2})
	require.NoError(t, err)
	assert.Equal(t, SchemeArgon2id, s.Name())

	_, err = New("rot13", Options{})
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestCodec_OpensEveryRegisteredScheme(t *testing.T) {
	schemes := testSchemes(t)
	codec := NewCodec(schemes[0], schemes[1])
	assert.Equal(t, SchemeAge, codec.SealerName())

	fromArgon, err := schemes[1].Seal([]byte("old data"), "pw")
	require.NoError(t, err)
	got, err := codec.Open(fromArgon, "pw")
	require.NoError(t, err)
	assert.Equal(t, []byte("old data"), got)

	fromCodec, err := codec.Seal([]byte("new data"), "pw")
	require.NoError(t, err)
	assert.True(t, schemes[0].Detect(fromCodec))
	got, err = codec.Open(fromCodec, "pw")
	require.NoError(t, err)
	assert.Equal(t, []byte("new data"), got)
}

func TestCodec_UnknownFormat(t *testing.T) {
	schemes := testSchemes(t)
	codec := NewCodec(schemes[0])

	fromArgon, err := schemes[1].Seal([]byte("x"), "pw")
	require.NoError(t, err)

	_, err = codec.Open(fromArgon, "pw")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = codec.Open(nil, "pw")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCodec_EmptyPassphrase(t *testing.T) {
	codec := NewCodec(testSchemes(t)[0])

	_, err := codec.Seal([]byte("x"), "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
	_, err = codec.Open([]byte("x"), "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestNewDefaultCodec(t *testing.T) {
	codec, err := NewDefaultCodec(SchemeArgon2id, Options{ScryptWorkFactor: MinScryptWorkFactor, Argon2: testArgon2})
	require.NoError(t, err)
	assert.Equal(t, SchemeArgon2id, codec.SealerName())

	age, err := NewAgeScheme(MinScryptWorkFactor)
	require.NoError(t, err)
	env, err := age.Seal([]byte("legacy"), "pw")
	require.NoError(t, err)

	got, err := codec.Open(env, "pw")
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy"), got)

	_, err = NewDefaultCodec("nope", Options{})
	assert.ErrorIs(t, err, ErrUnknownScheme)
}
