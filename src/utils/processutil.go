package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// Number 匹配excel序列号形式的日期/时间
var Number = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// excel可表示的最大日期序列号(9999-12-31)
const maxExcelSerial = 2958465

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// IsNullToken 判断单元格文本是否表示空值
func IsNullToken(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "n/a", "null", "none", "nat", "<nil>":
		return true
	}
	return false
}

// ExcelSerialToTime excel序列号转time.Time
// 返回false表示不是合法的序列号
func ExcelSerialToTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !Number.MatchString(s) {
		return time.Time{}, false
	}

	excelDays, err := strconv.ParseFloat(s, 64)
	if err != nil || excelDays < 1 || excelDays > maxExcelSerial {
		return time.Time{}, false
	}

	// 以1899-12-30为基准，已包含1900年闰年错误的修正
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := int(excelDays)
	fraction := excelDays - float64(days)

	result := base.AddDate(0, 0, days).
		Add(time.Duration(math.Round(86400*fraction)) * time.Second)
	return result, true
}

// ExcelFractionToClock excel的时间小数(0~1)转 15:04:05
func ExcelFractionToClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !Number.MatchString(s) {
		return "", false
	}
	fraction, err := strconv.ParseFloat(s, 64)
	if err != nil || fraction >= 1 {
		return "", false
	}
	secs := int(math.Round(fraction * 86400))
	if secs >= 86400 {
		secs = 86399
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60), true
}

// NamedFrame 一个工作表及其数据
type NamedFrame struct {
	Sheet string
	Frame dataframe.DataFrame
}

// SaveSheets 将多个DataFrame保存为一个Excel文件，每个DataFrame一个工作表
func SaveSheets(filePath string, frames []NamedFrame) error {
	if len(frames) == 0 {
		return fmt.Errorf("没有可保存的数据")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, nf := range frames {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", nf.Sheet); err != nil {
				return fmt.Errorf("重命名工作表失败: %w", err)
			}
		} else if _, err := f.NewSheet(nf.Sheet); err != nil {
			return fmt.Errorf("创建工作表 %s 失败: %w", nf.Sheet, err)
		}
		if err := writeFrame(f, nf.Sheet, nf.Frame); err != nil {
			return err
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func writeFrame(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	// 写入列名
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("写入表头失败: %w", err)
		}
	}

	// 写入数据，空值留空
	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			el := col.Elem(rowIdx)
			if el.IsNA() {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, el.Val()); err != nil {
				return fmt.Errorf("写入单元格 %s 失败: %w", cell, err)
			}
		}
	}
	return nil
}
