package kv

import (
	"github.com/ValentinKolb/flatkv/cmd/util"
	"github.com/ValentinKolb/flatkv/lib/common"
	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile"
	"github.com/ValentinKolb/flatkv/lib/store"
	"github.com/ValentinKolb/flatkv/lib/store/lstore"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	plog = logger.GetLogger("cmd")

	// fs is the file system holding the data directory (replaced in tests)
	fs afero.Fs = afero.NewOsFs()

	storeConfig *common.StoreConfig
	localStore  store.IStore
	engine      *flatfile.FlatFile

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:   "kv",
		Short: "Perform key-value operations on a dictionary",
		Long: `Perform key-value operations on a dictionary. Every dictionary is stored in its own
flat file <data-dir>/<dict>.ffs. The record layout (key type, key size and value size) is not
stored in the file and has to be passed with every command.

Flags can also be set via environment variables FLATKV_<flag> (e.g. FLATKV_KEY_SIZE=8)
or a .env file.`,
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add the flags describing the dictionary
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(insertCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(updateCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(findCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(metricsCmd)
	KeyValueCommands.AddCommand(destroyCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupStore reads the configuration and opens the local store of the configured dictionary
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	conf, err := util.GetStoreConfig()
	if err != nil {
		return err
	}
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return err
	}
	storeConfig = conf
	plog.Debugf("configuration:%s", conf.String())

	// the perf command opens its own dictionaries
	if cmd == perfTestCmd {
		return nil
	}

	if err := fs.MkdirAll(conf.DataDir, 0o755); err != nil {
		return err
	}

	// keep a handle on the engine for the metrics command
	localStore, err = lstore.NewLocalStore(func() (db.KVDB, error) {
		ff, err := flatfile.Open(conf.DictID, conf.ToFlatFileOptions(fs))
		engine = ff
		return ff, err
	})
	return err
}

// closeStore closes the store opened by setupStore (destroy already closed it)
func closeStore(cmd *cobra.Command, _ []string) error {
	if localStore == nil || cmd == destroyCmd {
		return nil
	}
	err := localStore.Close()
	localStore, engine = nil, nil
	return err
}
