package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// addServerFlags defines the shared server flags and binds them into the
// configuration, so flag, env, and file sources resolve consistently.
func addServerFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 8080, "server port")
	fs.String("host", "localhost", "server host")
	viper.BindPFlag("server.port", fs.Lookup("port"))
	viper.BindPFlag("server.host", fs.Lookup("host"))
}
