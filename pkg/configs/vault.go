package configs

import "github.com/spf13/viper"

// VaultConfig 存储凭据加密配置.
//
// encryption_key 恰好 32 字节时直接作为 AES-256 密钥，否则经 scrypt 派生.
// 没有默认值，缺失时配置校验失败；可用 `docvault vault genkey` 生成并通过
// DOCVAULT_VAULT_ENCRYPTION_KEY 注入.
type VaultConfig struct {
	EncryptionKey string `mapstructure:"encryption_key" rule:"required"`
}

func (c *VaultConfig) setDefaults(v *viper.Viper) {
	// 仅注册键名，使环境变量可以覆盖
	v.SetDefault("vault.encryption_key", "")
}
