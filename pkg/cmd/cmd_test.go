package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/queue"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	return out.String()
}

func TestVaultGenKey(t *testing.T) {
	a := strings.TrimSpace(run(t, "vault", "genkey"))
	b := strings.TrimSpace(run(t, "vault", "genkey"))

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestListCommands(t *testing.T) {
	out := run(t, "db", "ls")
	assert.Contains(t, out, "sqlite")

	out = run(t, "kv", "ls")
	assert.Contains(t, out, "memory")

	out = run(t, "events", "drivers")
	assert.Contains(t, out, "gochannel")
	assert.Contains(t, out, "nats")

	out = run(t, "events", "topics")
	assert.Equal(t, len(queue.AllTopics()), strings.Count(out, "\n"))
}

func TestRedact(t *testing.T) {
	c := configs.AppConfig{}
	c.Vault.EncryptionKey = "k"
	c.Auth.AdminAPIKey = "a"
	c.DB.Password = "p"

	r := redact(c)
	assert.Equal(t, redacted, r.Vault.EncryptionKey)
	assert.Equal(t, redacted, r.Auth.AdminAPIKey)
	assert.Equal(t, redacted, r.DB.Password)
	assert.Empty(t, r.KV.Redis.Password)
	assert.Equal(t, "k", c.Vault.EncryptionKey, "original untouched")
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)

	require.NoError(t, printJSON(c, map[string]any{"configured": true, "bucketName": "docs"}))
	assert.JSONEq(t, `{"configured":true,"bucketName":"docs"}`, out.String())
	assert.Contains(t, out.String(), "\n  \"")
}
