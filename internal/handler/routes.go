package handler

import "github.com/gin-gonic/gin"

// Routes bundles the handlers mounted under the API prefix.
type Routes struct {
	Semesters  *SemesterHandler
	Timetables *TimetableHandler
	Transfer   *TransferHandler
	Metrics    *MetricsHandler
}

// Register mounts every endpoint on group.
func Register(group *gin.RouterGroup, r Routes) {
	semesters := group.Group("/semesters")
	semesters.GET("", r.Semesters.List)
	semesters.POST("", r.Semesters.Create)
	semesters.GET("/:id", r.Semesters.Get)
	semesters.PUT("/:id", r.Semesters.Save)
	semesters.PATCH("/:id", r.Semesters.Rename)
	semesters.DELETE("/:id", r.Semesters.Delete)

	semesters.POST("/:id/courses", r.Semesters.AddCourse)
	semesters.DELETE("/:id/courses/:courseId", r.Semesters.DeleteCourse)
	semesters.POST("/:id/courses/:courseId/classes", r.Semesters.AddClass)
	semesters.DELETE("/:id/courses/:courseId/classes/:classId", r.Semesters.DeleteClass)

	semesters.POST("/:id/timetables", r.Timetables.Create)
	semesters.PUT("/:id/timetables/:timetableId", r.Timetables.Save)
	semesters.PATCH("/:id/timetables/:timetableId", r.Timetables.Rename)
	semesters.DELETE("/:id/timetables/:timetableId", r.Timetables.Delete)
	semesters.POST("/:id/timetables/:timetableId/duplicate", r.Timetables.Duplicate)
	semesters.GET("/:id/timetables/:timetableId/sheet", r.Timetables.Sheet)

	group.GET("/export", r.Transfer.Export)
	group.POST("/export/files", r.Transfer.SaveExport)
	group.GET("/export/files/:token", r.Transfer.Download)
	group.DELETE("/export/files/:token", r.Transfer.DeleteExport)
	group.POST("/import", r.Transfer.Import)

	if r.Metrics != nil {
		group.GET("/system/metrics", r.Metrics.Snapshot)
	}
}
