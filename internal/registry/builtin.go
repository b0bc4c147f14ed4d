package registry

import "github.com/klubi/clerk/pkg/apis/v1alpha1"

func builtinTools() []v1alpha1.ToolDescriptor {
	return []v1alpha1.ToolDescriptor{
		{
			Name:        "list_directory",
			Category:    v1alpha1.CategoryFileSystem,
			Description: "List files and directories in a specified path",
			Parameters: []v1alpha1.ToolParameter{
				{Name: "directory_path", Type: "string", Description: "Path to the directory to list", Default: "."},
			},
			Examples: []string{
				"list_directory",
				"list_directory /home/user/documents",
				"list_directory ../parent_folder",
			},
		},
		{
			Name:        "read_file",
			Category:    v1alpha1.CategoryFileSystem,
			Description: "Read the contents of a file",
			Parameters: []v1alpha1.ToolParameter{
				{Name: "file_path", Type: "string", Description: "Path to the file to read"},
			},
			Required: []string{"file_path"},
			Examples: []string{
				"read_file config.txt",
				"read_file /path/to/document.md",
				"read_file ./scripts/setup.py",
			},
		},
		{
			Name:        "write_file",
			Category:    v1alpha1.CategoryFileSystem,
			Description: "Write content to a file",
			Parameters: []v1alpha1.ToolParameter{
				{Name: "file_path", Type: "string", Description: "Path to the file to write"},
				{Name: "content", Type: "string", Description: "Content to write to the file"},
				{Name: "create_dirs", Type: "boolean", Description: "Create parent directories if they don't exist", Default: true},
			},
			Required: []string{"file_path", "content"},
			Examples: []string{
				"write_file output.txt 'Hello, World!'",
				`write_file config/settings.json '{"debug": true}'`,
				"write_file logs/app.log 'Application started'",
			},
		},
		{
			Name:        "create_file",
			Category:    v1alpha1.CategoryFileSystem,
			Description: "Create a new file with optional content",
			Parameters: []v1alpha1.ToolParameter{
				{Name: "file_path", Type: "string", Description: "Path to the file to create"},
				{Name: "content", Type: "string", Description: "Initial content for the file", Default: ""},
			},
			Required: []string{"file_path"},
			Examples: []string{
				"create_file new_document.txt",
				"create_file main.go 'package main'",
				"create_file README.md '# Project Title'",
			},
		},
		{
			Name:        "delete_file",
			Category:    v1alpha1.CategoryFileSystem,
			Description: "Delete a file or empty directory",
			Parameters: []v1alpha1.ToolParameter{
				{Name: "file_path", Type: "string", Description: "Path to the file or directory to delete"},
			},
			Required: []string{"file_path"},
			Examples: []string{
				"delete_file temp.txt",
				"delete_file old_directory/",
				"delete_file logs/debug.log",
			},
		},
		{
			Name:        "web_search",
			Category:    v1alpha1.CategoryWebSearch,
			Description: "Perform a web search and return results",
			Parameters: []v1alpha1.ToolParameter{
				{Name: "query", Type: "string", Description: "Search query"},
				{Name: "max_results", Type: "integer", Description: "Maximum number of results to return", Default: 5},
			},
			Required: []string{"query"},
			Examples: []string{
				"web_search 'Go concurrency patterns'",
				"web_search 'machine learning tutorials'",
				"web_search 'how to deploy a Go service'",
			},
		},
		{
			Name:        "execute_natural_language",
			Category:    v1alpha1.CategoryUtility,
			Description: "Execute a natural language command",
			Parameters: []v1alpha1.ToolParameter{
				{Name: "command", Type: "string", Description: "Natural language command to execute"},
			},
			Required: []string{"command"},
			Examples: []string{
				"execute_natural_language 'list all Go files in the current directory'",
				"execute_natural_language 'create a new file called notes.txt with today''s date'",
				"execute_natural_language 'search the web for the latest news about AI'",
			},
		},
	}
}
