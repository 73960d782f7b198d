// Package file loads process configuration from CLI flags, environment
// variables, and an optional .env file, in that priority order, using
// spf13/viper and spf13/pflag.
package file
