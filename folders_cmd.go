package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newFolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage shared folders and their images",
	}

	cmd.AddCommand(newFolderLsCmd())
	cmd.AddCommand(newFolderCreateCmd())
	cmd.AddCommand(newFolderRenameCmd())
	cmd.AddCommand(newFolderRmCmd())
	cmd.AddCommand(newFolderDisableCmd())
	cmd.AddCommand(newFolderUploadCmd())
	cmd.AddCommand(newFolderRenameImageCmd())
	cmd.AddCommand(newFolderRmImageCmd())

	return cmd
}

func newFolderLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List folders",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			folders, err := client.ListFolders(context.Background())
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(folders)
			}

			rows := make([][]string, len(folders))
			for i, f := range folders {
				rows[i] = []string{f.ID, f.Name, strconv.Itoa(len(f.Images)), strconv.FormatBool(f.Disabled)}
			}

			printTable(os.Stdout, []string{"ID", "NAME", "IMAGES", "DISABLED"}, rows)

			return nil
		},
	}
}

func newFolderCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			folder, err := client.CreateFolder(context.Background(), args[0])
			if err != nil {
				return err
			}

			statusf("Created folder %s (%s)\n", folder.Name, folder.ID)

			return nil
		},
	}
}

func newFolderRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder-id> <new-name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			if err := client.RenameFolder(context.Background(), args[0], args[1]); err != nil {
				return err
			}

			statusf("Folder renamed.\n")

			return nil
		},
	}
}

func newFolderRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <folder-id>",
		Short: "Delete a folder and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			if err := client.DeleteFolder(context.Background(), args[0]); err != nil {
				return err
			}

			statusf("Folder deleted.\n")

			return nil
		},
	}
}

func newFolderDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <folder-id>",
		Short: "Toggle a folder's visibility for regular users",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			if err := client.DisableFolder(context.Background(), args[0]); err != nil {
				return err
			}

			statusf("Folder visibility toggled.\n")

			return nil
		},
	}
}

func newFolderUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <folder-id> <file>...",
		Short: "Upload images to a folder",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			if err := client.UploadImages(context.Background(), args[0], args[1:]); err != nil {
				return err
			}

			statusf("Uploaded %d file(s).\n", len(args)-1)

			return nil
		},
	}
}

func newFolderRenameImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-image <folder-id> <image-id> <new-name>",
		Short: "Rename an image",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			if err := client.RenameImage(context.Background(), args[0], args[1], args[2]); err != nil {
				return err
			}

			statusf("Image renamed.\n")

			return nil
		},
	}
}

func newFolderRmImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-image <folder-id> <image-path>",
		Short: "Delete an image by its stored path",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			folderGone, err := client.DeleteImage(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}

			if folderGone {
				statusf("Image deleted; folder was emptied and removed.\n")
			} else {
				statusf("Image deleted.\n")
			}

			return nil
		},
	}
}
