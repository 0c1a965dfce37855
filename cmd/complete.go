package cmd

import (
	"flag"

	"github.com/etnz/statement/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// documentPredictor completes the arguments of commands reading documents.
var documentPredictor = predict.Or(predict.Files("*.txt"), predict.Files("*.pdf"), predict.Files("*.json"), predict.Dirs("*"))

// Completion returns the shell completion of the stx command line.
func Completion(globals *flag.FlagSet) *complete.Command {
	root := &complete.Command{Sub: map[string]*complete.Command{}, Flags: flagPredictors(globals)}
	for _, cmds := range Commands {
		for _, cmd := range cmds {
			fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(fs)
			sub := &complete.Command{Flags: flagPredictors(fs)}
			switch cmd.(type) {
			case *extractCmd, *textCmd:
				sub.Args = documentPredictor
			case *checkCmd:
				sub.Args = predict.Files("*.json")
			case *topicCmd:
				if topics, err := docs.GetAllTopics(); err == nil {
					sub.Args = predict.Set(topics)
				}
			}
			root.Sub[cmd.Name()] = sub
		}
	}
	return root
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "html":
			flags[f.Name] = predict.Files("*.html")
		case "config":
			flags[f.Name] = predict.Files("*.json")
		default:
			flags[f.Name] = predict.Nothing
		}
	})
	return flags
}
