// 工具：坐标系批量换算
// 背景：排查落盘坐标与图商坐标对不上时，手工验证一批点的偏移量；
// 从参数或标准输入逐行读取 "lat,lon"，输出换算结果与位移量。
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"loc-sim/internal/extract"
	"loc-sim/internal/geo"
)

func convert(line string, toGCJ bool) {
	c, ok := extract.ParseFreeText(line)
	if !ok {
		fmt.Fprintf(os.Stderr, "skip: %q\n", line)
		return
	}
	var out geo.Coordinate
	if toGCJ {
		out = geo.WGS84ToGCJ02(c)
	} else {
		out = geo.GCJ02ToWGS84(c)
	}
	fmt.Printf("%.6f,%.6f -> %.6f,%.6f (%.1f m)\n", c.Lat, c.Lon, out.Lat, out.Lon, geo.Distance(c, out))
}

func main() {
	from := flag.String("from", "gcj02", "输入坐标系：gcj02 或 wgs84")
	flag.Parse()
	toGCJ := *from == "wgs84"

	if flag.NArg() > 0 {
		for _, arg := range flag.Args() {
			convert(arg, toGCJ)
		}
		return
	}
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		convert(line, toGCJ)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
}
