package archive

import (
	"github.com/sells-group/meshclimate/internal/archive/archivetest"
	"github.com/sells-group/meshclimate/internal/model"
)

const blank = archivetest.Blank

var (
	headerLine    = archivetest.HeaderLine
	monthLine     = archivetest.MonthLine
	locationBlock = archivetest.LocationBlock
	constant      = archivetest.Constant
	join          = archivetest.Join
)

func archiveName(c model.Component, yy int) model.ArchiveName {
	return model.ArchiveName{Path: archivetest.FileName(c, "13", yy), Component: c, Region: "13", YearToken: yy}
}
