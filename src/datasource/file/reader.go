// reader.go
package file

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ReadOptions 读取表格文件的参数
type ReadOptions struct {
	Delimiter rune   // csv分隔符，0表示逗号
	Encoding  string // 文件编码，为空按utf-8处理
	SheetName string // xlsx工作表名，为空取第一个
	HeaderRow int    // xlsx表头行号(从0开始)
}

// ReadTable 按扩展名读取csv或xlsx，所有列均为字符串类型
func ReadTable(filePath string, opt ReadOptions) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return ReadXLSX(filePath, opt.SheetName, opt.HeaderRow)
	default:
		f, err := os.Open(filePath)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		defer f.Close()
		return ReadCSV(f, opt)
	}
}

// ReadCSV 解码并读取csv数据
func ReadCSV(r io.Reader, opt ReadOptions) (dataframe.DataFrame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("读取csv失败: %w", err)
	}

	data, err := decode(raw, opt.Encoding)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithDelimiter(delim),
	)
	if df.Err != nil {
		// 只有表头时gota返回错误，这里按表头构建空表
		if headers, ok := headerOnly(data, delim); ok {
			return stringFrame(headers, make([][]string, len(headers)))
		}
		return dataframe.DataFrame{}, fmt.Errorf("解析csv失败: %w", df.Err)
	}
	return df, nil
}

// headerOnly 数据只包含一行表头时返回表头
func headerOnly(data []byte, delim rune) ([]string, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	records, err := r.ReadAll()
	if err != nil || len(records) != 1 {
		return nil, false
	}
	return records[0], true
}

// stringFrame 按列构建字符串类型的DataFrame
func stringFrame(headers []string, columns [][]string) (dataframe.DataFrame, error) {
	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	df := dataframe.New(seriesList...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("转换为dataframe失败: %w", df.Err)
	}
	return df, nil
}

// decode 将原始字节转换为utf-8
func decode(raw []byte, name string) ([]byte, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("文件不是有效的utf-8编码")
		}
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("去除BOM失败: %w", err)
		}
		return out, nil
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%s 解码失败: %w", name, err)
	}
	return out, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("不支持的编码 %q: %w", name, err)
	}
	return enc, nil
}

func ReadXLSX(filePath, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open file false: %w", err)
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表")
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 不存在", sheetName)
		}
		sheet = s
	}

	return convertSheetToDataFrame(sheet, headerRow)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
func convertSheetToDataFrame(sheet *xlsx.Sheet, headerRow int) (dataframe.DataFrame, error) {
	if headerRow < 0 || len(sheet.Rows) <= headerRow {
		return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 没有表头行", sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[headerRow].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}
	// 去掉表头末尾的空单元格
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 表头为空", sheet.Name)
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-headerRow-1)
	}

	for _, row := range sheet.Rows[headerRow+1:] {
		if row == nil || isBlankRow(row) {
			continue
		}
		for i := range headers {
			value := ""
			if i < len(row.Cells) && row.Cells[i] != nil {
				value = row.Cells[i].String()
			}
			columns[i] = append(columns[i], value)
		}
	}

	return stringFrame(headers, columns)
}

func isBlankRow(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if cell != nil && strings.TrimSpace(cell.String()) != "" {
			return false
		}
	}
	return true
}
