// Command pluginhost-cli is a demonstration front end for the
// pluginhost library: one process, one Host, one plugin directory.
// It is ordinary collaborator code, not part of the host's core
// engineering — the spf13/cobra command tree mirrors the teacher
// pack's own CLI conventions (go-lynx/lynx/cmd/lynx).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/streamspace-dev/pluginhost"
	"github.com/streamspace-dev/pluginhost/logging"
)

var host *pluginhost.Host

var rootCmd = &cobra.Command{
	Use:   "pluginhost-cli",
	Short: "Drive a pluginhost.Host from the command line",
	Long:  "pluginhost-cli loads, lists, reloads, and unloads dynamically loaded plugins through a single pluginhost.Host.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Initialize(viper.GetString("log-level"), viper.GetBool("pretty"))
		host = pluginhost.New()
		host.SetPluginDirectory(viper.GetString("plugin-dir"))
		host.SetLoggingEnabled(true)
		host.RegisterLifecycleCallback(func(e pluginhost.LifecycleEvent) {
			logging.Host().Info().Str("event", e.Type).Str("plugin", e.Plugin).Str("reload_id", e.ReloadID).Msg("lifecycle")
		})
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load [path]",
	Short: "Load a single plugin library by path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := host.LoadPlugin(args[0]); err != nil {
			return err
		}
		fmt.Println("loaded")
		return nil
	},
}

var loadAllCmd = &cobra.Command{
	Use:   "load-all",
	Short: "Scan the plugin directory, load every candidate, and initialize in dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := host.LoadAllPlugins()
		if err != nil {
			return err
		}
		fmt.Printf("loaded %d plugin(s)\n", count)
		return nil
	},
}

var unloadCmd = &cobra.Command{
	Use:   "unload [name]",
	Short: "Unload a plugin by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := host.UnloadPlugin(args[0]); err != nil {
			return err
		}
		fmt.Println("unloaded")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List currently loaded plugin names",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range host.LoadedPluginNames() {
			fmt.Println(name)
		}
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload [name]",
	Short: "Hot-reload a plugin, cascading through its dependents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := host.HotReloadPlugin(args[0]); err != nil {
			return err
		}
		fmt.Println("reloaded")
		return nil
	},
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the most recently resolved load order",
	RunE: func(cmd *cobra.Command, args []string) error {
		order, ok := host.GetLoadOrder()
		if !ok {
			fmt.Println("no load order resolved yet")
			return nil
		}
		for _, name := range order {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("plugin-dir", ".", "directory scanned for plugin libraries")
	rootCmd.PersistentFlags().String("log-level", "info", "zerolog level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "use console-friendly log output instead of JSON")
	_ = viper.BindPFlag("plugin-dir", rootCmd.PersistentFlags().Lookup("plugin-dir"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("pretty", rootCmd.PersistentFlags().Lookup("pretty"))
	viper.SetEnvPrefix("PLUGINHOST")
	viper.AutomaticEnv()

	rootCmd.AddCommand(loadCmd, loadAllCmd, unloadCmd, listCmd, reloadCmd, orderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
