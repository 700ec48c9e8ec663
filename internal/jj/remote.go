package jj

import (
	"github.com/canadaduane/jj-ryu/internal/model"
)

// SelectRemote picks which remote to operate on. An explicit preference must
// exist; otherwise "origin" wins when present, else the first remote.
func SelectRemote(remotes []model.GitRemote, preferred string) (string, error) {
	if preferred != "" {
		for _, r := range remotes {
			if r.Name == preferred {
				return r.Name, nil
			}
		}
		return "", &model.RemoteNotFoundError{Name: preferred}
	}

	if len(remotes) == 0 {
		return "", model.ErrNoSupportedRemotes
	}
	for _, r := range remotes {
		if r.Name == "origin" {
			return r.Name, nil
		}
	}
	return remotes[0].Name, nil
}
