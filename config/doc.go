// Package config loads service configuration with viper and godotenv.
//
// LoadConfig reads config.yml, applies .env and process environment
// overrides onto keys present in the file, and unmarshals into the caller's
// struct through mapstructure tags. Structs then run ApplyDefaults and
// Validate, the convention every draftkit config follows.
package config
