package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rishimj/sagemaker-clone/core/spec"
)

var version = "dev"

func main() {
	if err := app().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func app() *cli.Command {
	return &cli.Command{
		Name:    "mlctl",
		Version: version,
		Usage:   "Submit training jobs and manage inference endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Platform API base URL",
				Value:   "http://localhost:3000",
				Sources: cli.EnvVars("ML_API_URL"),
			},
		},
		Commands: []*cli.Command{
			submitCmd(),
			statusCmd(),
			jobsCmd(),
			endpointCmd(),
		},
	}
}

func client(cmd *cli.Command) *apiClient {
	return newAPIClient(cmd.String("api-url"))
}

func submitCmd() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Submit a training job",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "spec-file", Usage: "YAML job spec (overrides the flags below)"},
			&cli.StringFlag{Name: "name", Usage: "Job name"},
			&cli.StringFlag{Name: "image", Usage: "Training container image"},
			&cli.StringFlag{Name: "input", Usage: "S3 path to the training dataset"},
			&cli.StringSliceFlag{Name: "hyperparam", Aliases: []string{"H"}, Usage: "Hyperparameter as key=value (repeatable)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			payload := map[string]any{}

			if path := cmd.String("spec-file"); path != "" {
				js, err := spec.LoadJobSpec(path)
				if err != nil {
					return err
				}
				payload["job_name"] = js.Job.Name
				payload["image"] = js.Job.Image
				payload["input_data"] = js.Job.InputData
				if len(js.Job.Hyperparameters) > 0 {
					payload["hyperparameters"] = js.Job.Hyperparameters
				}
			} else {
				if cmd.String("name") == "" || cmd.String("image") == "" || cmd.String("input") == "" {
					return fmt.Errorf("--name, --image and --input are required unless --spec-file is given")
				}
				payload["job_name"] = cmd.String("name")
				payload["image"] = cmd.String("image")
				payload["input_data"] = cmd.String("input")
				hyperparams, err := parseHyperparams(cmd.StringSlice("hyperparam"))
				if err != nil {
					return err
				}
				if len(hyperparams) > 0 {
					payload["hyperparameters"] = hyperparams
				}
			}

			var out map[string]any
			if err := client(cmd).do(ctx, "POST", "/jobs", payload, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show a job's status",
		ArgsUsage: "<job-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			jobID := cmd.Args().First()
			if jobID == "" {
				return fmt.Errorf("job ID is required")
			}
			var out map[string]any
			if err := client(cmd).do(ctx, "GET", "/jobs/"+jobID, nil, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func jobsCmd() *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "List jobs",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var out map[string]any
			if err := client(cmd).do(ctx, "GET", "/jobs", nil, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func endpointCmd() *cli.Command {
	return &cli.Command{
		Name:  "endpoint",
		Usage: "Manage inference endpoints",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Deploy a trained model as an endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Endpoint name", Required: true},
					&cli.StringFlag{Name: "job-id", Usage: "Completed training job to deploy", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var out map[string]any
					err := client(cmd).do(ctx, "POST", "/endpoints", map[string]any{
						"endpoint_name": cmd.String("name"),
						"job_id":        cmd.String("job-id"),
					}, &out)
					if err != nil {
						return err
					}
					return printJSON(out)
				},
			},
			{
				Name:      "delete",
				Usage:     "Tear down an endpoint",
				ArgsUsage: "<endpoint-name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("endpoint name is required")
					}
					var out map[string]any
					if err := client(cmd).do(ctx, "DELETE", "/endpoints/"+name, nil, &out); err != nil {
						return err
					}
					return printJSON(out)
				},
			},
			{
				Name:      "status",
				Usage:     "Show one endpoint, or list all",
				ArgsUsage: "[endpoint-name]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := "/endpoints"
					if name := cmd.Args().First(); name != "" {
						path += "/" + name
					}
					var out map[string]any
					if err := client(cmd).do(ctx, "GET", path, nil, &out); err != nil {
						return err
					}
					return printJSON(out)
				},
			},
		},
	}
}

// parseHyperparams turns key=value pairs into a typed map: numbers and bools
// are converted, everything else stays a string.
func parseHyperparams(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid hyperparameter %q, expected key=value", pair)
		}
		switch {
		case value == "true" || value == "false":
			out[key] = value == "true"
		default:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				out[key] = n
			} else if f, err := strconv.ParseFloat(value, 64); err == nil {
				out[key] = f
			} else {
				out[key] = value
			}
		}
	}
	return out, nil
}
