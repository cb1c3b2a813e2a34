package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/maruel/pathdb/internal/config"
	"github.com/maruel/pathdb/pathstore"
	"github.com/spf13/cobra"
)

// parseValue reads a command line value as JSON, or as a plain string when it
// is not valid JSON.
func parseValue(arg string) *pathstore.Value {
	if v, err := pathstore.Parse([]byte(arg)); err == nil {
		return v
	}
	return pathstore.String(arg)
}

func notFound(path string) error {
	return fmt.Errorf("%w: %q", errNotFound, path)
}

// mutated turns the (ok, err) pair of a mutation into an error.
func mutated(path string, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return notFound(path)
	}
	return nil
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value at path",
		Example: `  pathdb get user.name
  pathdb get "" -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			v, ok := s.Get(args[0])
			if !ok {
				return notFound(args[0])
			}
			return a.print(v)
		}),
	}
}

func (a *app) hasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "has <path>",
		Short: "Report whether path exists",
		Long:  "Prints true or false. The exit status is 2 when path does not exist.",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			ok := s.Has(args[0])
			fmt.Fprintln(a.stdout, ok)
			if !ok {
				return notFound(args[0])
			}
			return nil
		}),
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Update a value, or add a key to an existing object; append when it is an array",
		Example: `  pathdb set user.name Carlos
  pathdb set user.hobbies '"Cooking"'`,
		Args: cobra.ExactArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			ok, err := s.Set(args[0], parseValue(args[1]))
			return mutated(args[0], ok, err)
		}),
	}
}

func (a *app) replaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replace <path> <value>",
		Short: "Replace an existing value, arrays included",
		Args:  cobra.ExactArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			ok, err := s.Replace(args[0], parseValue(args[1]))
			return mutated(args[0], ok, err)
		}),
	}
}

func (a *app) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <path> <value>",
		Short: "Store a value, creating missing parent objects",
		Args:  cobra.ExactArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			return s.Put(args[0], parseValue(args[1]))
		}),
	}
}

func (a *app) defaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <path> <value>",
		Short: "Store a value only if path does not exist, then print the value at path",
		Args:  cobra.ExactArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			v, err := s.SetDefault(args[0], parseValue(args[1]))
			if err != nil {
				return err
			}
			return a.print(v)
		}),
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path> [key...]",
		Short: "Delete an object entry, or the given keys of the object at path",
		Example: `  pathdb delete user.age
  pathdb delete user age email`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			if len(args) > 1 {
				n, err := s.DeleteKeys(args[0], args[1:]...)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, n)
				return nil
			}
			ok, err := s.Delete(args[0])
			return mutated(args[0], ok, err)
		}),
	}
}

func (a *app) removeCmd() *cobra.Command {
	match := false
	cmd := &cobra.Command{
		Use:   "remove <path> <value>",
		Short: "Remove the first element equal to value",
		Long: `Remove the first array element, or object entry, equal to value.

With --match, value is an object and the first array element sharing at
least one key with an equal value is removed.`,
		Example: `  pathdb remove user.hobbies Reading
  pathdb remove --match user.hobbies '{"name":"Programming"}'`,
		Args: cobra.ExactArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			var ok bool
			var err error
			if match {
				ok, err = s.RemoveMatch(args[0], parseValue(args[1]))
			} else {
				ok, err = s.Remove(args[0], parseValue(args[1]))
			}
			return mutated(args[0], ok, err)
		}),
	}
	cmd.Flags().BoolVar(&match, "match", false, "Match objects on any shared key")
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "query <path> <key>...",
		Short:   "Print the value at path reduced to the given keys",
		Example: `  pathdb query user name age`,
		Args:    cobra.MinimumNArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			v, ok := s.Query(args[0], args[1:]...)
			if !ok {
				return notFound(args[0])
			}
			return a.print(v)
		}),
	}
}

func (a *app) pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <path> <value>...",
		Short: "Append values to the array at path",
		Args:  cobra.MinimumNArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			for _, arg := range args[1:] {
				ok, err := s.Push(args[0], parseValue(arg))
				if err := mutated(args[0], ok, err); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <path> [true|false]",
		Short: "Flip the boolean at path, or set it, and print the new value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			var value []bool
			if len(args) == 2 {
				b, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("invalid boolean %q", args[1])
				}
				value = append(value, b)
			}
			result, ok, err := s.Toggle(args[0], value...)
			if err := mutated(args[0], ok, err); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, result)
			return nil
		}),
	}
}

func (a *app) mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "merge <path> <json>",
		Short:   "Apply a JSON merge patch (RFC 7386) to the value at path",
		Example: `  pathdb merge user '{"age":31,"email":null}'`,
		Args:    cobra.ExactArgs(2),
		RunE: a.withStore(func(_ *cobra.Command, s *pathstore.Store, args []string) error {
			patch, err := pathstore.Parse([]byte(args[1]))
			if err != nil {
				return fmt.Errorf("invalid merge patch: %w", err)
			}
			ok, err := s.Merge(args[0], patch)
			return mutated(args[0], ok, err)
		}),
	}
}

func (a *app) patchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <file|->",
		Short: "Apply a JSON patch (RFC 6902) to the document",
		Long:  "Apply a JSON patch read from file, or from stdin when file is -. Either every operation applies or none does.",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *pathstore.Store, args []string) error {
			var ops []byte
			var err error
			if args[0] == "-" {
				ops, err = io.ReadAll(cmd.InOrStdin())
			} else {
				ops, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read patch: %w", err)
			}
			return s.Patch(ops)
		}),
	}
}

func (a *app) configSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:              "config-schema",
		Short:            "Print the JSON schema of the configuration",
		Args:             cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(*cobra.Command, []string) error {
			return a.printJSON(config.Schema())
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:              "version",
		Short:            "Print version and exit",
		Args:             cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(*cobra.Command, []string) {
			version, goVersion, revision, dirty := getBuildInfo()
			fmt.Fprintf(a.stdout, "pathdb %s\n", version)
			fmt.Fprintf(a.stdout, "  Go version: %s\n", goVersion)
			fmt.Fprintf(a.stdout, "  Revision:   %s\n", revision)
			if dirty {
				fmt.Fprintf(a.stdout, "  Modified:   true\n")
			}
		},
	}
}
