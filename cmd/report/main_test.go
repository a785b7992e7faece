package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
)

func sessionJSON(t *testing.T) []byte {
	t.Helper()
	s, err := filing.NewSession(filing.Params{
		UserID:   "user-1",
		Taxpayer: domain.LegalEntity{Name: "Ana Reyes"},
		Period:   calendar.Period{Year: 2024, Quarter: 2},
		Config:   filing.DefaultTaxConfig(),
	})
	require.NoError(t, err)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return data
}

func TestRun_FileAllFormats(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "session.json")
	require.NoError(t, os.WriteFile(in, sessionJSON(t), 0o600))

	var stdout bytes.Buffer
	err := run(context.Background(), options{in: in, format: "all", outDir: dir}, nil, &stdout)
	require.NoError(t, err)

	var printed map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &printed))
	assert.Contains(t, printed, "summary")
	assert.Contains(t, printed, "deadlines")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var csvFiles, xlsxFiles int
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "Ana_Reyes_2024Q2_") && strings.HasSuffix(e.Name(), ".csv"):
			csvFiles++
		case strings.HasPrefix(e.Name(), "Ana_Reyes_2024Q2_") && strings.HasSuffix(e.Name(), ".xlsx"):
			xlsxFiles++
		}
	}
	assert.Equal(t, 1, csvFiles)
	assert.Equal(t, 1, xlsxFiles)
}

func TestRun_Stdin(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer

	err := run(context.Background(), options{in: "-", format: "none", outDir: dir}, bytes.NewReader(sessionJSON(t)), &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), `"percentage_tax": "2024-07-25"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_Errors(t *testing.T) {
	var stdout bytes.Buffer
	ctx := context.Background()

	assert.Error(t, run(ctx, options{format: "all"}, nil, &stdout))
	assert.ErrorIs(t, run(ctx, options{in: "-", format: "all"}, strings.NewReader("{"), &stdout), domain.ErrMalformedInput)
	assert.ErrorIs(t, run(ctx, options{in: "-", format: "pdf"}, bytes.NewReader(sessionJSON(t)), &stdout), domain.ErrUnsupportedFormat)
	assert.Error(t, run(ctx, options{sessionID: "not-a-uuid"}, nil, &stdout))
}
