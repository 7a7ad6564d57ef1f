package repo

import (
	"gorm.io/gorm"
)

type Repo struct {
	journalDB *gorm.DB
}

func NewRepo(journalDB *gorm.DB) IRepo {
	return &Repo{
		journalDB: journalDB,
	}
}

func (r *Repo) Trade() ITrade {
	return NewTradeSQLRepo(r.journalDB)
}
