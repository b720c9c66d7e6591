package kv

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/flatkv/cmd/util"
	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/spf13/cobra"
)

var (
	insertCmd = &cobra.Command{
		Use:   "insert [key] [value]",
		Short: "Appends a key value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value, err := util.ParseRecord(storeConfig, args[0], args[1])
			if err != nil {
				return err
			}
			if err := localStore.Insert(key, value); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "inserted successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := util.ParseKey(storeConfig, args[0])
			if err != nil {
				return err
			}
			resp, ok, err := localStore.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=%v, value=%s\n", args[0], ok, util.FormatValue(resp))
			return nil
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [key] [value]",
		Short: "Overwrites the value of a key (inserts the pair if the key does not exist)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value, err := util.ParseRecord(storeConfig, args[0], args[1])
			if err != nil {
				return err
			}
			count, err := localStore.Update(key, value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d row(s)\n", count)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes all rows of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := util.ParseKey(storeConfig, args[0])
			if err != nil {
				return err
			}
			count, err := localStore.Delete(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d row(s)\n", count)
			return nil
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [key | low high]",
		Short: "Lists all rows, the rows of one key or the rows of a key range",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			predicate := db.PredicateAll()
			switch len(args) {
			case 1:
				key, err := util.ParseKey(storeConfig, args[0])
				if err != nil {
					return err
				}
				predicate = db.PredicateEquality(key)
			case 2:
				low, err := util.ParseKey(storeConfig, args[0])
				if err != nil {
					return err
				}
				high, err := util.ParseKey(storeConfig, args[1])
				if err != nil {
					return err
				}
				predicate = db.PredicateRange(low, high)
			}

			pairs, err := localStore.Find(predicate)
			if err != nil {
				return err
			}
			for _, pair := range pairs {
				fmt.Fprintf(cmd.OutOrStdout(), "key=%s, value=%s\n",
					db.FormatKey(storeConfig.KeyType, pair.Key), util.FormatValue(pair.Value))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d row(s)\n", len(pairs))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := localStore.GetDBInfo()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	metricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "Prints the engine counters of the dictionary in Prometheus text format",
		Long: `Prints the engine counters of the dictionary in Prometheus text format.
The counters belong to the handle opened by this command, so they show the cost of opening
the dictionary (recovering the end of data).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine.WriteMetrics(cmd.OutOrStdout())
			return nil
		},
	}
	destroyCmd = &cobra.Command{
		Use:   "destroy",
		Short: "Deletes the data file of the dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := localStore.Destroy(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "destroyed %s\n", storeConfig.DataFile())
			return nil
		},
	}
)
